package main

import (
	"os"

	"apshelper.com/job-helper/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
