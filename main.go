package main

import (
	"os"

	"github.com/yahsan2/gh-mcp/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
