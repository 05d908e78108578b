package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"github.com/toyz/servicereg/internal/config"
	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/utils"
)

// PlanReport is the printable form of a composed plan. Identities are
// shortened relative to the module.
type PlanReport struct {
	Module   string      `yaml:"module"`
	Bindings []ReportRow `yaml:"bindings"`
}

// ReportRow is one binding of the report
type ReportRow struct {
	Contract       string          `yaml:"contract"`
	Implementation string          `yaml:"implementation"`
	Lifetime       models.Lifetime `yaml:"lifetime"`
	Role           string          `yaml:"role"`
	Decorator      string          `yaml:"decorator,omitempty"`
}

// NewPlanReport builds a report for bindings
func NewPlanReport(mod utils.Module, bindings []models.Binding) PlanReport {
	report := PlanReport{Module: mod.Path, Bindings: make([]ReportRow, 0, len(bindings))}
	for _, b := range bindings {
		report.Bindings = append(report.Bindings, ReportRow{
			Contract:       mod.Shorten(string(b.Contract)),
			Implementation: mod.Shorten(string(b.Implementation)),
			Lifetime:       b.Lifetime,
			Role:           b.Role.String(),
			Decorator:      mod.Shorten(string(b.Decorator)),
		})
	}
	return report
}

// Write renders the report in format, "text" or "yaml"
func (r PlanReport) Write(w io.Writer, format string, useColors bool) error {
	switch format {
	case config.FormatYAML:
		return r.WriteYAML(w)
	case config.FormatText, "":
		return r.WriteText(w, useColors)
	default:
		return errors.Newf(errors.ConfigurationErrorCode, "unknown output format %q", format)
	}
}

// WriteYAML encodes the report as a YAML document
func (r PlanReport) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.WrapGenerateError("yaml report", err)
	}
	return enc.Close()
}

var roleColors = map[string]lipgloss.Color{
	models.PlainBinding.String():     lipgloss.Color("2"),
	models.AccessorBinding.String():  lipgloss.Color("8"),
	models.DecoratedBinding.String(): lipgloss.Color("3"),
	models.DecoratorBinding.String(): lipgloss.Color("6"),
}

// WriteText renders the report as a table, one binding per row in plan order
func (r PlanReport) WriteText(w io.Writer, useColors bool) error {
	re := lipgloss.NewRenderer(w)
	if !useColors {
		re.SetColorProfile(termenv.Ascii)
	}

	header := re.NewStyle().Bold(true).Padding(0, 1)
	cell := re.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(r.Bindings))
	for i, b := range r.Bindings {
		rows = append(rows, []string{strconv.Itoa(i + 1), b.Contract, b.Implementation, b.Lifetime.String(), b.Role, b.Decorator})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("#", "CONTRACT", "IMPLEMENTATION", "LIFETIME", "ROLE", "DECORATOR").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == 4 && row >= 0 && row < len(rows) {
				if c, ok := roleColors[rows[row][4]]; ok {
					return cell.Foreground(c)
				}
			}
			return cell
		})

	if r.Module != "" {
		if _, err := fmt.Fprintf(w, "module %s\n", r.Module); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
