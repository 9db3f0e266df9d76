package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(s *session) *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle against the remote",
		Long: `Fetch remote quotes and merge them into the local store. With
--push, local quotes are uploaded afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine := s.components.Engine

			cycle := engine.RunCycle
			if push {
				cycle = engine.RunCycleWithPush
			}

			report, err := cycle(cmd.Context())
			if err != nil {
				return err
			}

			if report.Failed() {
				return fmt.Errorf("sync failed: %s%s", report.FetchError, report.MergeError)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "fetched %d, added %d, updated %d\n",
				report.Fetched, report.Merge.Added, report.Merge.Updated)

			if push || engine.PushEnabled() {
				if report.PushError != "" {
					return fmt.Errorf("push failed: %s", report.PushError)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "pushed %d\n", report.Pushed)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "upload local quotes after merging")

	return cmd
}

func newPushCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload local quotes to the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			local := s.components.Store.LocalOnly()

			n, err := s.components.Engine.PushLocal(cmd.Context(), local)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d\n", n)
			printQuotes(cmd.OutOrStdout(), local)

			return nil
		},
	}
}
