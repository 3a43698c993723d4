// Package config defines the installer settings and provides helpers to load,
// validate and save them in YAML format.
//
// Settings cover where packages are installed (the cellar), timeouts, the log
// level, the Java command written into launchers and the download progress bar.
package config
