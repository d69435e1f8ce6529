package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/wippyai/tailcall-stress/corpus"
)

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect recorded mismatches",
	}
	cmd.AddCommand(newCorpusListCmd())
	return cmd
}

func newCorpusListCmd() *cobra.Command {
	var path, runID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded mismatches with what is needed to replay them",
		Long: `Lists every mismatch recorded with --corpus. Replay one with

  tailstress <trial> --seed <seed> --pool-size <size>

using the seed and pool size of the recording run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return fmt.Errorf("--corpus is required")
			}
			store, err := corpus.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no mismatches recorded")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("run", "trial", "base seed", "call", "caller", "callee", "expected", "actual")
			for _, e := range entries {
				t.Row(
					shortRunID(e.RunID),
					strconv.Itoa(e.Trial),
					strconv.FormatUint(e.Seed-uint64(e.Trial), 10),
					e.Call,
					e.CallerSignature,
					e.CalleeSignature,
					fmt.Sprintf("%#x", e.Expected),
					fmt.Sprintf("%#x", e.Actual),
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "corpus", "", "SQLite database written by a run")
	cmd.Flags().StringVar(&runID, "run", "", "only list mismatches of this run id")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
