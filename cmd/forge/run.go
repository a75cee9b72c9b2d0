package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dataforge/internal/workflow"
)

var (
	styleSummary = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	styleFailed  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	styleTask    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleHeading = lipgloss.NewStyle().Bold(true).Underline(true)
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <request>",
		Short: "Plan and execute a natural-language request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			request := strings.Join(args, " ")
			a.logger.Info("processing request", zap.String("request", request))

			res, err := a.engine.ProcessRequest(cmd.Context(), request, nil)
			printResult(res)
			return err
		},
	}
}

func newProcessCmd() *cobra.Command {
	var request string
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Ingest a file and run a request against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			a.logger.Info("processing upload",
				zap.String("file", args[0]),
				zap.Int("bytes", len(data)),
				zap.String("request", request))

			res, err := a.engine.ProcessFileUpload(cmd.Context(), string(data), args[0], request)
			printResult(res)
			return err
		},
	}
	cmd.Flags().StringVarP(&request, "request", "r", "clean, validate and report on this data", "request to run against the file")
	return cmd
}

// printResult renders a workflow outcome: per-task status lines, any
// Markdown export through glamour, and the styled summary.
func printResult(res *workflow.ExecutionResult) {
	if res == nil {
		return
	}

	fmt.Println(styleHeading.Render("Plan"))
	if res.Plan != nil && res.Plan.Reasoning != "" {
		fmt.Println(styleTask.Render(res.Plan.Reasoning))
	}

	for _, r := range res.Results {
		line := fmt.Sprintf("  [%d] %-18s %s", r.Index, r.Action, r.Status)
		if r.Error != "" {
			line += "  " + r.Error
		}
		if r.Status == workflow.StatusFailed {
			fmt.Println(styleFailed.Render(line))
		} else {
			fmt.Println(styleTask.Render(line))
		}
		printExport(r)
	}

	summary := res.Summary
	if strings.Contains(summary, " 0 failed") {
		fmt.Println(styleSummary.Render(summary))
	} else {
		fmt.Println(styleFailed.Render(summary))
	}
}

func printExport(r workflow.TaskResult) {
	content, _ := r.Value["content"].(string)
	if content == "" {
		return
	}
	format, _ := r.Value["format"].(string)

	switch format {
	case "markdown":
		rendered, err := glamour.Render(content, "dark")
		if err != nil {
			fmt.Println(content)
			return
		}
		fmt.Print(rendered)
	default:
		fmt.Println(content)
	}
}
