package main

import (
	"os"

	"board-reviewer/internal/cli"

	_ "time/tzdata"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
