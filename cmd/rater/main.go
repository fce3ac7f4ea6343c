package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// @title           AL Quote Rater API
// @version         1.0
// @description     Local API for rating commercial auto-liability policies and browsing stored calculations.
// @host            localhost:8080
// @BasePath        /
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		slog.Debug("no configs/.env file loaded", "error", err)
	}
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run dispatches a subcommand and returns the process exit code: 0 on
// success, 1 when the command failed, 2 on a usage error.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "serve", "server":
		return runServeCmd(args[2:], stdout, stderr)
	case "rate":
		return runRateCmd(args[2:], stdout, stderr)
	case "history":
		return runHistoryCmd(args[2:], stdout, stderr)
	case "show":
		return runShowCmd(args[2:], stdout, stderr)
	case "export":
		return runExportCmd(args[2:], stdout, stderr)
	case "import":
		return runImportCmd(args[2:], stdout, stderr)
	case "tables":
		return runTablesCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rater <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                                   Run the local HTTP API")
	fmt.Fprintln(w, "  rate -policy FILE [-printed X] [-no-broker] [-save] [-export DIR] [-json]")
	fmt.Fprintln(w, "                                          Rate a policy document")
	fmt.Fprintln(w, "  history [-limit N] [-out FILE]          List stored calculations")
	fmt.Fprintln(w, "  show -id ID                             Print a stored calculation")
	fmt.Fprintln(w, "  export -id ID -out FILE [-summary]      Export a stored calculation")
	fmt.Fprintln(w, "  import -in FILE                         Store a previously exported calculation")
	fmt.Fprintln(w, "  tables                                  Describe the loaded rating tables")
}
