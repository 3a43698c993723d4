package receipt

import (
	"os"
	"os/user"
)

// Actor identifies who performed an install.
type Actor struct {
	Hostname string `yaml:"hostname,omitempty"`
	Username string `yaml:"username,omitempty"`
}

// DetectActor gathers host and user information for the receipt. Lookups that
// fail leave the field empty: an install never fails for lack of an audit trail.
func DetectActor() Actor {
	var actor Actor

	if hostname, err := os.Hostname(); err == nil {
		actor.Hostname = hostname
	}

	if currentUser, err := user.Current(); err == nil {
		actor.Username = currentUser.Username
	}

	return actor
}
