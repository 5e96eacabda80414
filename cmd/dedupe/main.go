// Command dedupe is the command line front end of the duplicate finder.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
