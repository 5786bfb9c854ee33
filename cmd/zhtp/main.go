package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"zhtp-network/cmd/zhtp/cli"
)

func main() {
	_ = godotenv.Load()

	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(int(cli.ExitCodeOf(err)))
	}
}
