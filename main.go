package main

import (
	"os"

	"metasync/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
