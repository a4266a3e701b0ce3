package main

import (
	"os"

	"github.com/lawdesk/matterflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
