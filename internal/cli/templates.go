package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/report"
	"github.com/roach88/ittm/internal/rulegen"
)

// TemplateInfo describes one built-in rule table.
type TemplateInfo struct {
	Index       int           `json:"index"`
	Description string        `json:"description"`
	Halts       bool          `json:"halts"`
	Table       *ir.RuleTable `json:"table"`
}

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the built-in rule tables",
		Long: `List the twenty built-in two-state rule tables that the dovetail
population cycles through. Machine i of a dovetail population runs
template i mod 20.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplates(rootOpts, cmd)
		},
	}

	return cmd
}

func runTemplates(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	templates := rulegen.Templates()
	infos := make([]TemplateInfo, len(templates))
	for i, t := range templates {
		infos[i] = TemplateInfo{
			Index:       t.Index,
			Description: t.Description,
			Halts:       t.Halts,
			Table:       t.Table,
		}
	}

	return formatter.Success(infos, func(w io.Writer) error {
		for _, t := range templates {
			if _, err := fmt.Fprintln(w, report.RulesLine(t.Index, t.Table, t.Description)); err != nil {
				return err
			}
		}
		return nil
	})
}
