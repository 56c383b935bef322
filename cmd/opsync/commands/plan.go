package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/opsync/internal/config"
	"github.com/systmms/opsync/internal/template"
)

// PlannedLookup is one `op` read a sync would perform.
type PlannedLookup struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Line        int    `json:"line,omitempty"`
	Account     string `json:"account,omitempty"`
	Vault       string `json:"vault,omitempty"`
	Item        string `json:"item"`
	Field       string `json:"field,omitempty"`
	Destination string `json:"destination"`
}

// PlanResult is the dry run of a whole rc file.
type PlanResult struct {
	Lookups []PlannedLookup `json:"lookups"`
	Skipped []string        `json:"skipped,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

func NewPlanCommand(cfg *config.Config) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a sync would read from 1Password (no values fetched)",
		Long: `Plan lists every document and template placeholder a sync would
resolve, with the account, vault and item each one resolves against.
Nothing is fetched and no destination is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			result := BuildPlan(cfg.Definition)

			if outputJSON {
				if err := outputPlanJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				outputPlanTable(cmd.OutOrStdout(), result)
			}

			for _, name := range result.Skipped {
				cfg.Logger.Warn("Skipping %s: unknown type", name)
			}
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					cfg.Logger.Error("%s", e)
				}
				return fmt.Errorf("plan found %d problem(s)", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}

// BuildPlan computes the lookups of every work item without calling `op`.
func BuildPlan(def *config.Definition) PlanResult {
	result := PlanResult{Lookups: []PlannedLookup{}}

	for _, item := range def.Items {
		switch item.Type {
		case config.TypeFile:
			result.Lookups = append(result.Lookups, PlannedLookup{
				Name:        item.Name,
				Type:        item.Type,
				Account:     item.Account,
				Vault:       item.Vault,
				Item:        item.SecretItem(),
				Destination: item.Destination,
			})
		case config.TypeTemplate:
			lookups, err := template.Plan(item)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Name, err))
				continue
			}
			for _, l := range lookups {
				result.Lookups = append(result.Lookups, PlannedLookup{
					Name:        item.Name,
					Type:        item.Type,
					Line:        l.Line,
					Account:     l.Scope.Account,
					Vault:       l.Scope.Vault,
					Item:        l.Scope.Item,
					Field:       l.Placeholder.Field,
					Destination: item.Destination,
				})
			}
		default:
			result.Skipped = append(result.Skipped, item.Name)
		}
	}

	return result
}

func outputPlanJSON(w io.Writer, result PlanResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputPlanTable(out io.Writer, result PlanResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "NAME\tTYPE\tLINE\tACCOUNT\tVAULT\tITEM\tFIELD\tDESTINATION\n")
	_, _ = fmt.Fprintf(w, "----\t----\t----\t-------\t-----\t----\t-----\t-----------\n")

	for _, l := range result.Lookups {
		line := "-"
		if l.Line > 0 {
			line = strconv.Itoa(l.Line)
		}
		field := l.Field
		if l.Type == config.TypeFile {
			field = "(document)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.Name, l.Type, line, orDash(l.Account), orDash(l.Vault), l.Item, field, l.Destination)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nTotal lookups: %d\n", len(result.Lookups))
}
