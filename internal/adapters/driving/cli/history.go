package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent reorganisation runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit") //nolint:errcheck // flag is registered above
	if limit < 1 {
		return fmt.Errorf("limit must be at least 1")
	}

	ctx := cmd.Context()
	session, err := open(ctx, false)
	if err != nil {
		return err
	}
	defer closeSession(cmd, session)

	runs, err := session.Organiser.Runs(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tTRIGGER\tFILES\tCLUSTERS\tMOVED\tFAILED\tNOTE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Trigger,
			r.Files, r.Clusters, r.Moved, r.Failed, r.Note)
	}
	return w.Flush()
}
