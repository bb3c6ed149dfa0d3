package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/haskel/powermon/internal/storage"
	"github.com/haskel/powermon/internal/summary"
)

var reportCmd = &cobra.Command{
	Use:   "report <output_file>",
	Short: "Summarize a saved results file",
	Long: `Load a results file written by powermon, recompute the summary from its
measurements and print it. A summary that does not match the stored one is
flagged.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

var reportJSON bool

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(reportCmd)
}

// Report is the JSON form of the report command.
type Report struct {
	File          string          `json:"file"`
	SavedAt       string          `json:"saved_at"`
	TotalDuration float64         `json:"total_duration"`
	CurrentTask   string          `json:"current_task"`
	Stored        summary.Summary `json:"stored"`
	Recomputed    summary.Summary `json:"recomputed"`
	Consistent    bool            `json:"consistent"`
}

const summaryTolerance = 1e-6

func runReport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	doc, err := storage.Load(args[0])
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), buildReport(args[0], doc), reportJSON)
}

func buildReport(path string, doc *storage.Document) Report {
	recomputed := summary.Summarize(doc.Measurements, doc.EvaluationProgress)
	return Report{
		File:          path,
		SavedAt:       doc.Timestamp,
		TotalDuration: doc.TotalDuration,
		CurrentTask:   doc.EvaluationProgress.CurrentTask,
		Stored:        doc.Summary,
		Recomputed:    recomputed,
		Consistent:    recomputed.Equal(doc.Summary, summaryTolerance),
	}
}

var (
	reportTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	reportLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(22)
	reportValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	reportWarnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	reportBoxStyle   = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1)
)

func writeReport(w io.Writer, r Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	s := r.Recomputed
	rows := [][2]string{
		{"Saved at", r.SavedAt},
		{"Total duration", fmt.Sprintf("%.1f s", r.TotalDuration)},
		{"Measurements", fmt.Sprintf("%d", s.MeasurementCount)},
		{"Examples evaluated", fmt.Sprintf("%d", s.TotalExamples)},
		{"Tokens generated", fmt.Sprintf("%d", s.TotalTokens)},
		{"Last task", orDash(r.CurrentTask)},
		{"Average power", fmt.Sprintf("%.2f W", s.AvgPower)},
		{"Peak power", fmt.Sprintf("%.2f W", s.MaxPower)},
		{"Peak memory", fmt.Sprintf("%.0f MiB", s.MaxMemory)},
		{"Average utilization", fmt.Sprintf("%.1f %%", s.AvgGPUUtil)},
	}
	if s.TotalDurationSeconds > 0 && s.TotalExamples > 0 {
		rows = append(rows, [2]string{"Energy per example", fmt.Sprintf("%.2f J", s.AvgPower*s.TotalDurationSeconds/float64(s.TotalExamples))})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, reportLabelStyle.Render(row[0])+reportValueStyle.Render(row[1]))
	}

	out := reportTitleStyle.Render(r.File) + "\n" + reportBoxStyle.Render(strings.Join(lines, "\n")) + "\n"
	if !r.Consistent {
		out += reportWarnStyle.Render("warning: stored summary does not match the measurements") + "\n"
	}

	_, err := io.WriteString(w, out)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
