package main

import (
	"fmt"
	"os"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "token":
		err = cmdToken(os.Args[2:])
	case "migrate":
		err = cmdMigrate()
	case "doctor":
		err = cmdDoctor()
	case "events":
		err = cmdEvents(os.Args[2:])
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("academiax %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`AcademiaX - Student toolkit backend

Usage:
  academiax <command> [arguments]

Commands:
  token <email>     Mint a session token with the configured secret
  migrate           Apply SQL migrations (sqlite, postgres)
  doctor            Check the store and the completion provider
  events [pattern]  Print resource events as they happen (default pattern "#")
  mcp               Start the MCP server on stdio

Other:
  help              Show this help message
  version           Show version information

Configuration is read from the same environment variables as academiaxd
(STORE_DRIVER, MONGODB_URI, ACCESS_TOKEN_SECRET, RABBITMQ_URL, LLM_PROVIDER, ...).

Examples:
  academiax token student@example.com
  academiax events 'task.*'
  STORE_DRIVER=sqlite academiax migrate`)
}
