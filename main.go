package main

import (
	"os"

	"github.com/qsh-sh/qsh/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
