package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/opsync/internal/config"
	dserrors "github.com/systmms/opsync/internal/errors"
	"github.com/systmms/opsync/internal/onepassword"
)

// Check statuses.
const (
	StatusHealthy = "healthy"
	StatusError   = "error"
)

// CheckResult is the outcome of one doctor check.
type CheckResult struct {
	Name       string
	Status     string
	Message    string
	Suggestion string
}

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the 1Password CLI is installed and signed in",
		Long: `Verify the environment a sync depends on.

This command checks:
- Configuration file validity
- Template sources are readable
- The op binary is installed
- A session exists for every account the rc file uses`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger.Info("Checking opsync configuration...")
			if err := cfg.Load(); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return err
			}

			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			results := RunChecks(cmd.Context(), cfg.Definition, client)
			displayCheckResults(cmd.OutOrStdout(), results)

			healthy := 0
			for _, r := range results {
				if r.Status == StatusHealthy {
					healthy++
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nSummary: %d/%d checks passed\n", healthy, len(results))
			if healthy < len(results) {
				return fmt.Errorf("some checks failed")
			}
			return nil
		},
	}

	return cmd
}

// RunChecks performs every check against def. The `op` checks stop after the
// binary is found missing since nothing else can pass.
func RunChecks(ctx context.Context, def *config.Definition, client *onepassword.Client) []CheckResult {
	results := []CheckResult{{
		Name:    "config",
		Status:  StatusHealthy,
		Message: fmt.Sprintf("%d items", len(def.Items)),
	}}

	for _, item := range def.Items {
		if item.Type != config.TypeTemplate {
			continue
		}
		check := CheckResult{Name: "template " + item.Name, Status: StatusHealthy, Message: item.Source}
		if _, err := os.Stat(item.Source); err != nil {
			check.Status = StatusError
			check.Message = err.Error()
			check.Suggestion = "Fix 'source' or create the template file"
		}
		results = append(results, check)
	}

	version, err := client.Version(ctx)
	if err != nil {
		return append(results, failedCheck("op binary", err))
	}
	results = append(results, CheckResult{Name: "op binary", Status: StatusHealthy, Message: "version " + version})

	for _, account := range accounts(def) {
		name := "session " + orDash(account)
		who, err := client.WhoAmI(ctx, account)
		if err != nil {
			results = append(results, failedCheck(name, err))
			continue
		}
		results = append(results, CheckResult{
			Name:    name,
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%s on %s", who.Email, who.URL),
		})
	}

	return results
}

// accounts returns the distinct accounts the work items use, sorted, with ""
// for the CLI's default account.
func accounts(def *config.Definition) []string {
	seen := map[string]bool{}
	for _, item := range def.Items {
		seen[item.Account] = true
	}
	if len(seen) == 0 {
		seen[""] = true
	}

	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func failedCheck(name string, err error) CheckResult {
	check := CheckResult{Name: name, Status: StatusError, Message: err.Error()}
	var cmdErr dserrors.CommandError
	if errors.As(err, &cmdErr) {
		check.Message = cmdErr.Stderr
		check.Suggestion = cmdErr.Suggestion
	}
	return check
}

func displayCheckResults(out io.Writer, results []CheckResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CHECK\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "-----\t------\t-------\n")

	for _, r := range results {
		status := "✓ " + r.Status
		if r.Status != StatusHealthy {
			status = "✗ " + r.Status
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, status, r.Message)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	for _, r := range results {
		if r.Suggestion != "" {
			_, _ = fmt.Fprintf(out, "%s: %s\n", r.Name, r.Suggestion)
		}
	}
}
