package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/keshon/sweeper/internal/purge"
	"github.com/keshon/sweeper/internal/storage"
	"github.com/keshon/sweeper/internal/version"
)

func defaultDBPath() string {
	_ = godotenv.Load()
	if p := os.Getenv("STORAGE_PATH"); p != "" {
		return p
	}
	return "data/sweeper.db"
}

func newRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:          "sweeper-cli",
		Short:        "Inspect the purge history recorded by the sweeper bot",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "path to the SQLite database")

	open := func() (*storage.Storage, error) {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("database %s: %w", dbPath, err)
		}
		return storage.New(dbPath)
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newHistoryCmd(open),
		newRunsCmd(open),
		newRunCmd(open),
	)
	return rootCmd
}

type opener func() (*storage.Storage, error)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

func newHistoryCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "history GUILD_ID",
		Short: "Show the latest commands used in a guild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.FetchCommandHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				_, err := fmt.Fprintln(out, "no commands recorded")
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tCHANNEL\tUSER\tCOMMAND")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t#%s\t%s\t%s\n", r.Datetime.Format(time.DateTime), r.ChannelName, r.Username, r.Command)
			}
			return tw.Flush()
		},
	}
}

func newRunsCmd(open opener) *cobra.Command {
	var (
		guildID string
		limit   int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent purge runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListPurgeRuns(cmd.Context(), guildID, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			if len(runs) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no purge runs recorded")
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tCHANNEL\tSTAGE\tREQUESTED\tLOADED\tDELETED\tFAILED BATCHES")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					r.ID, r.StartedAt.Format(time.DateTime), r.ChannelID, r.Stage,
					r.Requested, r.Loaded, r.Deleted, failedBatches(r))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "only show runs of this guild")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newRunCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "run RUN_ID",
		Short: "Show one purge run and its batches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetPurgeRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: %s in %s (guild %s) by %s\n", run.ID, run.Stage, run.ChannelID, run.GuildID, run.RequesterID)
			fmt.Fprintf(out, "requested %d, loaded %d, deleted %d, took %s\n",
				run.Requested, run.Loaded, run.Deleted, run.FinishedAt.Sub(run.StartedAt))
			if run.Error != "" {
				fmt.Fprintf(out, "error: %s\n", run.Error)
			}
			for _, b := range run.Batches {
				line := fmt.Sprintf("  batch %d: %d messages, %s", b.Index, b.Size, b.Status)
				if b.Error != "" {
					line += " (" + b.Error + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func failedBatches(r storage.PurgeRun) int {
	n := 0
	for _, b := range r.Batches {
		if b.Status != purge.StatusSucceeded {
			n++
		}
	}
	return n
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
