package main

import (
	"os"

	"github.com/newhook/issuerun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
