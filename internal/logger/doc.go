// Package logger wraps zap for the installer:
//   - a global sugared logger writing console output to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag and the settings file,
//   - convenience functions (Info, InfoKV, ErrorKV, ...).
//
// Services take a context and pull the logger out of it, so a command can
// scope every message of a run with its name and the package being installed.
package logger
