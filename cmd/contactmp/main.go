package main

import (
	"os"

	"github.com/hostcampaign/site/cmd/contactmp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
