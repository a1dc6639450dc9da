// Package cli implements the searchd db maintenance subcommands.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/timclh/Chess-v1-sub000/server"
)

// Run dispatches a db subcommand: init, delete or query.
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, or query")
	}
	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "query":
		return runQuery(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func openStore(path string) (*server.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	store, err := server.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	fmt.Printf("Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("delete database: %w", err)
	}
	fmt.Printf("Database deleted: %s\n", *path)
	return nil
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	variant := fs.String("variant", "", "Variant to filter (optional, * for all)")
	limit := fs.Int("limit", 50, "Maximum rows to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.QueryAnalyses(*variant, *limit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No analyses found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVariant\tBest Move\tScore\tDepth\tCreated")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.AnalysisID[:8], r.Variant, r.BestMove, r.Score, r.Depth,
			r.CreatedUTC.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
