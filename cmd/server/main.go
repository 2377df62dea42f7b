// Package main is the entry point for the blogful server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (config file + BLOGFUL_* env vars)
// 2. Create dependencies (logger, database pool, tracer provider)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
//
// COMMANDS:
// The binary is a cobra CLI:
//
//	blogful [serve]           run the HTTP server (the default)
//	blogful migrate           create the schema and exit
//	blogful --config x.yaml   use an explicit config file
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed usage errors; this covers failures
		// from the commands themselves.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
