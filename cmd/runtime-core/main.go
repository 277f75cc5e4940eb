package main

import (
	"os"

	"github.com/scriptrt/runtime-core/internal/cmd"
)

const appVersion = "0.0.1"

func main() {
	os.Exit(cmd.RunWithArgs(os.Args[1:], appVersion))
}
