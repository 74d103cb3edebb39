package main

import (
	"fmt"
	"os"

	"elapor/cmd/elaporctl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
