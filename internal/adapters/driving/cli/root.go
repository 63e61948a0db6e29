// Package cli provides the sefs command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driving"
	"github.com/custodia-labs/sefs/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Session is an organiser opened for one root together with the settings it
// runs with.
type Session struct {
	Organiser driving.Organiser
	Settings  domain.Settings
	Close     func() error
}

// Opener opens a session for root. Exclusive sessions hold the root lock and
// may move files.
type Opener func(ctx context.Context, root string, exclusive bool) (*Session, error)

// Services injected by the composition root.
var (
	settingsService driving.SettingsService
	openSession     Opener
)

var (
	rootFlag    string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "sefs",
	Short: "Semantic file organiser",
	Long: `sefs watches a directory and keeps it organised by meaning.

Files are embedded, clustered by similarity and moved into
<root>/<domain>/<cluster>/ folders named after their content.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlag, "root", "r", "", "directory to organise (overrides the root setting)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the settings service and the session opener.
func SetServices(settings driving.SettingsService, opener Opener) {
	settingsService = settings
	openSession = opener
}

// SetVersion sets the version printed by 'sefs version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// open starts a session for the --root flag or the configured root.
func open(ctx context.Context, exclusive bool) (*Session, error) {
	if openSession == nil {
		return nil, errors.New("organiser not configured")
	}
	root := rootFlag
	if root == "" && settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		root = settings.Root
	}
	if root == "" {
		return nil, errors.New("no root directory: pass --root or run 'sefs config set root <dir>'")
	}
	return openSession(ctx, root, exclusive)
}

// closeSession closes s and reports a failure on stderr.
func closeSession(cmd *cobra.Command, s *Session) {
	if s.Close == nil {
		return
	}
	if err := s.Close(); err != nil {
		cmd.PrintErrf("Warning: close: %v\n", err)
	}
}
