package main

import (
	"os"

	"github.com/relaykit/gistrelay/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
