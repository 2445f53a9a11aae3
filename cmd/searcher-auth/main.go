// ABOUTME: CLI for searcher keypairs and block engine auth tokens
// ABOUTME: Subcommands: pubkey, keygen, token, watch

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

const banner = `
                          _                                _   _
 ___  ___  __ _ _ __ ___| |__   ___ _ __      __ _ _   _| |_| |__
/ __|/ _ \/ _' | '__/ __| '_ \ / _ \ '__|____/ _' | | | | __| '_ \
\__ \  __/ (_| | | | (__| | | |  __/ | |_____| (_| | |_| | |_| | | |
|___/\___|\__,_|_|  \___|_| |_|\___|_|       \__,_|\__,_|\__|_| |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "pubkey":
		err = cmdPubkey(args)
	case "keygen":
		err = cmdKeygen(args)
	case "token":
		err = cmdToken(args)
	case "watch":
		err = cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: searcher-auth <command> [flags]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  pubkey                  Print the identity of the configured keypair")
	fmt.Println("  keygen [-out path]      Generate a new ed25519 keypair file")
	fmt.Println("  token                   Authenticate and print token expiries")
	fmt.Println("  watch [-reload]         Keep a token fresh; -reload follows keypair rotation")
	fmt.Println()
	yellow.Println("Common flags:")
	fmt.Println("  -config <path>          YAML or TOML config file")
	fmt.Println("  -url <url>              Block engine URL (overrides config)")
	fmt.Println("  -keypair <path>         Keypair file (overrides config)")
	fmt.Println("  -role <role>            searcher, relayer, validator, ... (overrides config)")
	fmt.Println("  -insecure               Disable TLS")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SEARCHER_AUTH_CONFIG     Config file used when -config is not given")
	fmt.Println()
}
