package main

import "github.com/cloudageitC/Git-Credential-Manager/cmd/gcm-installer/cmd"

func main() {
	cmd.Execute()
}
