package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/opsync/internal/config"
	"github.com/systmms/opsync/internal/materialize"
	"github.com/systmms/opsync/internal/metrics"
	"github.com/systmms/opsync/internal/runner"
	"github.com/systmms/opsync/internal/template"
)

// FailedItemsError is returned by a strict run in which items failed.
type FailedItemsError struct {
	Failed int
	Total  int
}

func (e *FailedItemsError) Error() string {
	return fmt.Sprintf("%d of %d items failed", e.Failed, e.Total)
}

func NewSyncCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Write every configured file and template (default command)",
		Long: `Sync processes the work items of the rc file in order. File items
download a 1Password document to their destination; template items
replace {{vault.item.field}} placeholders with field values.

A failing item never stops the run. Use --strict to exit non-zero when
any item failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSync(cmd.Context(), cfg)
		},
	}
}

// RunSync loads the rc file and processes every work item.
func RunSync(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Load(); err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var m *metrics.SyncMetrics
	if cfg.MetricsFile != "" {
		m = metrics.NewSyncMetrics()
	}

	rep := reporter(cfg)
	r := runner.New(materialize.New(client), template.New(client, rep), rep, runner.WithMetrics(m))

	cfg.Logger.Debug("Processing %d items from %s", len(cfg.Definition.Items), cfg.Path)
	summary := r.Run(ctx, cfg.Definition)

	if summary.Total > 0 {
		rep.Info("%d of %d items written (%d failed, %d skipped)",
			summary.Succeeded, summary.Total, summary.Failed(), summary.Skipped)
	}

	if m != nil {
		if err := m.WriteFile(cfg.MetricsFile); err != nil {
			cfg.Logger.Warn("Failed to write metrics to %s: %v", cfg.MetricsFile, err)
		}
	}

	if cfg.Strict && !summary.OK() {
		return &FailedItemsError{Failed: summary.Failed(), Total: summary.Total}
	}
	return nil
}
