package main

import (
	"os"

	"github.com/ixops/inetd-gen/cmd"
)

func main() {
	rootCmd := (&cmd.RootCommand{}).GetCobraCommand()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
