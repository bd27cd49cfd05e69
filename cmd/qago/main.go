package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/qago/pkg/report"
	"github.com/ormasoftchile/qago/pkg/verdict"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "qago",
	Short: "QA execution reporting toolkit",
	Long:  "qago records structured steps, soft assertions and attachments for test runs, with verdict reclassification and JSON report documents.",
}

func init() {
	rootCmd.AddCommand(versionCmd, schemaCmd, validateCmd, summaryCmd)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("qago %s (%s)\n", version, commit)
	},
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Emit the JSON Schema for report documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := report.GenerateJSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [report.json]",
	Short: "Validate a report document against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	if err := report.ValidateDocument(data); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed:\n  %v\n", err)
		return fmt.Errorf("validation failed")
	}
	fmt.Printf("✓ %s is a valid report document\n", args[0])
	return nil
}

// --- summary ---

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var summaryCmd = &cobra.Command{
	Use:   "summary [report.json]",
	Short: "Print the failure summary of a report document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	doc, err := report.LoadFile(args[0])
	if err != nil {
		return err
	}

	if doc.Title != "" {
		fmt.Printf("%s (run %s)\n", doc.Title, doc.RunID)
	} else {
		fmt.Printf("run %s\n", doc.RunID)
	}

	for _, c := range doc.Cases {
		name := c.Name
		if c.Title != "" {
			name = c.Title
		}
		switch c.Verdict {
		case string(verdict.Passed):
			fmt.Printf("  %s %s\n", passStyle.Render("✓"), name)
		case string(verdict.Failed):
			fmt.Printf("  %s %s\n", failStyle.Render("✗"), name)
		case string(verdict.Skipped):
			fmt.Printf("  %s %s\n", skipStyle.Render("⏭"), name)
		default:
			fmt.Printf("  %s %s\n", dimStyle.Render(c.Verdict), name)
		}
		for _, line := range c.Summary {
			fmt.Printf("      %s\n", dimStyle.Render(line))
		}
		if c.Error != "" {
			fmt.Printf("      %s\n", failStyle.Render(c.Error))
		}
	}

	s := doc.Summary
	counts := []string{fmt.Sprintf("%d total", s.Total)}
	if s.Passed > 0 {
		counts = append(counts, passStyle.Render(fmt.Sprintf("%d passed", s.Passed)))
	}
	if s.Failed > 0 {
		counts = append(counts, failStyle.Render(fmt.Sprintf("%d failed", s.Failed)))
	}
	if s.Skipped > 0 {
		counts = append(counts, skipStyle.Render(fmt.Sprintf("%d skipped", s.Skipped)))
	}
	if s.XFailed > 0 {
		counts = append(counts, dimStyle.Render(fmt.Sprintf("%d xfailed", s.XFailed)))
	}
	if s.XPassed > 0 {
		counts = append(counts, dimStyle.Render(fmt.Sprintf("%d xpassed", s.XPassed)))
	}
	fmt.Println(strings.Join(counts, ", "))

	if s.Failed > 0 {
		return fmt.Errorf("%d case(s) failed", s.Failed)
	}
	return nil
}
