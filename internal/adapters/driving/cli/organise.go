package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

var organiseCmd = &cobra.Command{
	Use:     "organise",
	Aliases: []string{"organize"},
	Short:   "Organise a directory once",
	Long: `Scan the root, cluster every supported file and move each one into
<root>/<domain>/<cluster>/. Exits when the run is complete.`,
	RunE: runOrganise,
}

func init() {
	rootCmd.AddCommand(organiseCmd)
}

func runOrganise(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	session, err := open(ctx, true)
	if err != nil {
		return err
	}
	defer closeSession(cmd, session)

	cmd.Printf("Scanning %s...\n", session.Settings.Root)
	if err := session.Organiser.Scan(ctx); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	run, err := session.Organiser.Reorganise(ctx)
	if err != nil {
		return fmt.Errorf("reorganise failed: %w", err)
	}
	printRunSummary(cmd, run)
	return nil
}

func printRunSummary(cmd *cobra.Command, run *domain.ReorganiseRun) {
	if run.Clusters == 0 && run.Note != "" {
		cmd.Printf("Nothing to do: %s\n", run.Note)
		return
	}
	cmd.Printf("Organised %d files into %d clusters: %d moved, %d failed (%s)\n",
		run.Files, run.Clusters, run.Moved, run.Failed, run.Duration().Round(time.Millisecond))
	if !run.Success() {
		cmd.Println("Some moves failed; they will be retried on the next run. Use --verbose for details.")
	}
}
