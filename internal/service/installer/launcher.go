package installer

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// javaFromEnvironment prefers $JAVA_HOME/bin/java and falls back to java on the PATH.
const javaFromEnvironment = `"${JAVA_HOME:+$JAVA_HOME/bin/}java"`

// renderLauncher returns the POSIX shell script that runs artifactPath with
// Java, forwarding $JAVA_OPTS and every argument.
func renderLauncher(javaCommand, artifactPath string) (string, error) {
	jar, err := syntax.Quote(artifactPath, syntax.LangPOSIX)
	if err != nil {
		return "", configError(fmt.Errorf("quote artifact path: %w", err))
	}

	java := javaFromEnvironment
	if javaCommand != "" {
		if java, err = syntax.Quote(javaCommand, syntax.LangPOSIX); err != nil {
			return "", configError(fmt.Errorf("quote java command: %w", err))
		}
	}

	var script strings.Builder

	script.WriteString("#!/bin/sh\n")
	script.WriteString("# Generated by gcm-installer.\n")
	script.WriteString("exec ")
	script.WriteString(java)
	script.WriteString(" $JAVA_OPTS -jar ")
	script.WriteString(jar)
	script.WriteString(" \"$@\"\n")

	if err = validateLauncher(script.String()); err != nil {
		return "", err
	}

	return script.String(), nil
}

// validateLauncher parses script as POSIX shell.
func validateLauncher(script string) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))

	if _, err := parser.Parse(strings.NewReader(script), "launcher"); err != nil {
		return configError(fmt.Errorf("launcher script: %w", err))
	}

	return nil
}
