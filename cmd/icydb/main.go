// icydb is a small operator CLI for the embedded store: open a database
// directory and print its storage report, or replay any pending commit
// marker left behind by a prior crash.
//
// # Commands
//
//	icydb stats     Print entity/entry counts for a database directory
//	icydb recover   Replay a pending commit marker, if one exists
//
// Configuration (optional):
//
// Create icydb.yaml next to the working directory for defaults:
//
//	dataDir: ./data
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

	var err error
	switch cmd {
	case "stats":
		err = runStats()
	case "recover":
		err = runRecover()
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "-v", "--version":
		fmt.Printf("icydb version %s\n", version)
		return
	default:
		fmt.Fprintf(os.Stderr, "icydb: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "icydb %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`icydb - embedded store operator CLI

Usage:
  icydb <command> [flags]

Commands:
  stats     Print entity/entry counts for a database directory
  recover   Replay a pending commit marker, if one exists

Examples:
  icydb stats --db ./data
  icydb recover --db ./data

Configuration (optional):
  Create icydb.yaml for defaults:

    dataDir: ./data

Run 'icydb <command> --help' for more information on a command.`)
}
