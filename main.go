package main

import (
	"fmt"
	"os"

	"github.com/LilVoxy/linkedin_analytics/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
