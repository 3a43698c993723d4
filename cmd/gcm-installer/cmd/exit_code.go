package cmd

import (
	"errors"

	"github.com/cloudageitC/Git-Credential-Manager/internal/service/installer"
)

// Process exit codes, one per error kind.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitNetwork   = 3
	ExitHTTP      = 4
	ExitIntegrity = 5
	ExitIO        = 6
)

// exitCode maps err to the process exit status. Integrity failures win over
// everything else so a tampered download is never reported as something milder.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, installer.ErrIntegrity):
		return ExitIntegrity
	case errors.Is(err, installer.ErrHTTP):
		return ExitHTTP
	case errors.Is(err, installer.ErrNetwork):
		return ExitNetwork
	case errors.Is(err, installer.ErrConfig):
		return ExitConfig
	case errors.Is(err, installer.ErrIO):
		return ExitIO
	default:
		return ExitFailure
	}
}
