package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/dqlmap/internal/schema"
)

// ClassSummary describes one loaded class.
type ClassSummary struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Extends string          `json:"extends,omitempty"`
	Members []MemberSummary `json:"members"`
}

// MemberSummary describes one member mapping.
type MemberSummary struct {
	Name       string `json:"name"`
	Column     string `json:"column"`
	Relation   string `json:"relation,omitempty"`
	Target     string `json:"target,omitempty"`
	Embedded   bool   `json:"embedded,omitempty"`
	Persistent bool   `json:"persistent"`
}

// SchemaReport is the JSON payload of the schema command.
type SchemaReport struct {
	Valid       bool                     `json:"valid"`
	Fingerprint string                   `json:"fingerprint,omitempty"`
	Classes     []ClassSummary           `json:"classes"`
	Errors      []schema.ValidationError `json:"errors,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <schema-dir>",
		Short: "Load, validate and list schema classes",
		Long: `Load the CUE class definitions in a directory, check them for
consistency (unknown targets, embedded cycles, duplicate types, empty
columns) and list each class with its member mappings.

Exit codes:
  0 - Schema is valid
  1 - Schema loaded but failed validation
  2 - Schema could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, args[0], cmd)
		},
	}
}

func runSchema(opts *RootOptions, dir string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd.OutOrStdout())

	reg, err := schema.LoadDir(dir)
	if err != nil {
		var le *schema.LoadError
		if errors.As(err, &le) {
			return out.Fail(ExitCommandError, le.Code, le.Message, nil)
		}
		return out.Fail(ExitCommandError, schema.ErrCodeGeneric, err.Error(), nil)
	}

	report := SchemaReport{Classes: summarize(reg)}
	report.Errors = schema.Validate(reg)
	report.Valid = len(report.Errors) == 0
	if report.Valid {
		if report.Fingerprint, err = reg.Fingerprint(); err != nil {
			return out.Fail(ExitCommandError, schema.ErrCodeGeneric, err.Error(), nil)
		}
	}

	if out.JSON() {
		if err := out.Success(report); err != nil {
			return err
		}
	} else {
		printSchema(out, report)
	}

	if !report.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("schema has %d problem(s)", len(report.Errors)))
	}
	return nil
}

func summarize(reg *schema.Registry) []ClassSummary {
	classes := reg.Classes()
	summaries := make([]ClassSummary, 0, len(classes))
	for _, c := range classes {
		s := ClassSummary{Name: c.Name, Type: c.Type, Extends: c.Extends}
		for _, name := range c.MemberNames() {
			m := c.Members[name]
			ms := MemberSummary{
				Name:       m.Name,
				Column:     m.Column,
				Target:     m.Target,
				Embedded:   m.Embedded,
				Persistent: m.Persistent,
			}
			if m.Relation != schema.RelationNone {
				ms.Relation = m.Relation.String()
			}
			s.Members = append(s.Members, ms)
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries
}

func printSchema(out *OutputFormatter, report SchemaReport) {
	for _, c := range report.Classes {
		if c.Extends != "" {
			out.Printf("%s (%s) extends %s\n", c.Name, c.Type, c.Extends)
		} else {
			out.Printf("%s (%s)\n", c.Name, c.Type)
		}
		for _, m := range c.Members {
			line := fmt.Sprintf("  %s -> %s", m.Name, m.Column)
			switch {
			case m.Embedded:
				line += fmt.Sprintf(" [embedded %s %s]", m.Target, m.Relation)
			case m.Relation != "":
				line += fmt.Sprintf(" [%s %s]", m.Relation, m.Target)
			}
			if !m.Persistent {
				line += " [transient]"
			}
			out.Printf("%s\n", line)
		}
	}

	out.Printf("\n")
	if report.Valid {
		out.Printf("✓ %d class(es), fingerprint %s\n", len(report.Classes), report.Fingerprint)
		return
	}
	out.Printf("✗ %d problem(s)\n", len(report.Errors))
	for _, e := range report.Errors {
		out.Printf("  %s\n", e.Error())
	}
}
