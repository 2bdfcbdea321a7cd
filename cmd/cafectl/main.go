package main

import (
	"fmt"
	"os"

	"github.com/xenking/cafe-orders/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cafectl:", err)
		os.Exit(1)
	}
}
