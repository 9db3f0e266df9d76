// Package main is the entry point for quotectl, the command-line client
// that works directly on the local quote store.
package main

import "github.com/jsamuelsen/quote-sync/cmd/quotectl/cmd"

func main() {
	cmd.Execute()
}
