package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoscan/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [start-url]",
		Short: "List archived analysis runs",
		Long: `History lists what the archive holds.

Without an argument it lists every archived site. With a start URL it lists
the runs of that site, newest first, with their page, warning and error
counts. Run IDs can be passed to 'seoscan compare --with-run-id'.

Examples:
  # List archived sites
  seoscan history

  # List the runs of a site
  seoscan history https://example.com/

  # Only the last 5 runs
  seoscan history -n 5 https://example.com/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := dbDirFlag(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	archive, err := openExistingArchive(dbDir)
	if errors.Is(err, database.ErrArchiveNotFound) {
		fmt.Fprintln(out, "No archive found. Use 'seoscan analyze --archive <url>' to archive results.")
		return nil
	}
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := cmd.Context()
	if len(args) == 0 {
		return listSites(ctx, out, archive)
	}
	return listRuns(ctx, out, archive, args[0], limit)
}

// openExistingArchive opens the archive in dbDir without creating it.
func openExistingArchive(dbDir string) (*database.Archive, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	archive, err := database.Open(dbDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return archive, nil
}

func listSites(ctx context.Context, out io.Writer, archive *database.Archive) error {
	sites, err := archive.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Fprintln(out, "No archived sites.")
		return nil
	}

	fmt.Fprintf(out, "Archived sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(out, "  • %s\n", site)
	}
	fmt.Fprintln(out, "\nUse 'seoscan history <start-url>' to list the runs of a site.")
	return nil
}

func listRuns(ctx context.Context, out io.Writer, archive *database.Archive, site string, limit int) error {
	runs, err := archive.GetRunHistory(ctx, site, limit)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No archived runs for %s\n", site)
		return nil
	}

	fmt.Fprintf(out, "Runs of %s (%d):\n\n", site, len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %6s  %8s  %6s  %5s  %8s\n",
		"ID", "Date", "Pages", "Warnings", "Errors", "Dups", "Time")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))

	for _, r := range runs {
		fmt.Fprintf(out, "  %-6d  %-19s  %6d  %8d  %6d  %5d  %7.1fs\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.PageCount,
			r.WarningCount,
			r.ErrorCount,
			r.DuplicateGroups,
			r.TotalTime,
		)
	}

	fmt.Fprintln(out, "\nUse 'seoscan compare <start-url>' to compare the latest two runs.")
	return nil
}
