package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/sexprbox/journal"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded executions",
		Long: `List executions recorded in the --db journal, newest first.

With --prune, executions older than the given age are deleted first.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
	cmd.Flags().Int("limit", 20, "Max executions to list (0 for all)")
	cmd.Flags().Duration("prune", 0, "Delete executions older than this age")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded execution and its journal",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func openStore(cmd *cobra.Command) (*journal.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		return nil, errors.New("no execution journal: set --db or database in the config")
	}
	return journal.Open(path)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	prune, _ := cmd.Flags().GetDuration("prune")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if prune > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "pruned %d executions\n", n)
	}

	entries, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGUEST\tSTATUS\tDURATION\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n",
			e.ID, e.Guest, e.Status, e.Duration.Round(time.Microsecond), e.Created.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:       %s\n", e.ID)
	fmt.Fprintf(out, "guest:    %s\n", e.Guest)
	fmt.Fprintf(out, "digest:   %s\n", e.Digest)
	fmt.Fprintf(out, "status:   %s\n", e.Status)
	if e.Reason != "" {
		fmt.Fprintf(out, "reason:   %s\n", e.Reason)
	}
	fmt.Fprintf(out, "duration: %v\n", e.Duration)
	fmt.Fprintf(out, "created:  %s\n", e.Created.Format(time.RFC3339))

	fmt.Fprintln(out, "input:")
	if err := writeRecords(out, "  ", e.Input); err != nil {
		return err
	}
	fmt.Fprintln(out, "journal:")
	return writeRecords(out, "  ", e.Journal)
}
