package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/crewforge/crewd/internal/app/readiness"
	"github.com/crewforge/crewd/internal/model"
)

// TablePrinter prints pipeline information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintSummary prints all pipeline stages in pipeline order plus the
// produced-artifact registry.
func (t *TablePrinter) PrintSummary(stages []model.Stage, artifacts []model.ArtifactRecord) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "STAGE\tSTATUS\tPROGRESS\tOUTPUT\tUPDATED")
	for _, s := range stages {
		updated := "-"
		if !s.UpdatedAt.IsZero() {
			updated = TimeAgo(s.UpdatedAt)
		}
		output := s.OutputFile
		if output == "" {
			output = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\t%s\n", s.ID, s.Status, s.Percent, output, updated)
	}
	tw.Flush()

	if len(artifacts) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw = tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "FILE\tCREATED BY\tSTATUS\tCREATED")
	for _, a := range artifacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.FileName, a.CreatedBy, a.Status, TimeAgo(a.CreatedAt))
	}

	return nil
}

// PrintStage prints the detailed record of a single stage.
func (t *TablePrinter) PrintStage(stage model.Stage) error {
	fmt.Fprintf(t.writer, "Stage:      %s\n", stage.ID)
	fmt.Fprintf(t.writer, "Status:     %s\n", stage.Status)
	fmt.Fprintf(t.writer, "Progress:   %d%%\n", stage.Percent)
	if stage.OutputFile != "" {
		fmt.Fprintf(t.writer, "Output:     %s\n", stage.OutputFile)
	}
	if stage.Notes != "" {
		fmt.Fprintf(t.writer, "Notes:      %s\n", stage.Notes)
	}
	if !stage.UpdatedAt.IsZero() {
		fmt.Fprintf(t.writer, "Updated:    %s\n", FormatTimestamp(stage.UpdatedAt))
	}
	return nil
}

// PrintWorkItems prints the pending and completed work item ledger.
func (t *TablePrinter) PrintWorkItems(pending, completed []model.WorkItem) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if len(pending) == 0 && len(completed) == 0 {
		fmt.Fprintln(t.writer, "No work items.")
		return nil
	}

	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tTASK\tCREATED")
	for _, w := range pending {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", w.ID, w.Status, w.Priority, w.Description, TimeAgo(w.CreatedAt))
	}
	for _, w := range completed {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", w.ID, w.Status, w.Priority, w.Description, TimeAgo(w.CreatedAt))
	}

	return nil
}

// PrintReadiness prints a readiness query answer with its blocking and
// complete predecessors.
func (t *TablePrinter) PrintReadiness(result readiness.Result) error {
	if result.Ready {
		fmt.Fprintf(t.writer, "Stage %s is ready.\n", result.StageID)
		if len(result.CompleteStages) > 0 {
			fmt.Fprintf(t.writer, "Complete: %s\n", strings.Join(result.CompleteStages, ", "))
		}
		return nil
	}

	fmt.Fprintf(t.writer, "Stage %s is BLOCKED.\n", result.StageID)
	fmt.Fprintf(t.writer, "Waiting for: %s\n", strings.Join(result.BlockingStages, ", "))
	complete := "none"
	if len(result.CompleteStages) > 0 {
		complete = strings.Join(result.CompleteStages, ", ")
	}
	fmt.Fprintf(t.writer, "Complete: %s\n", complete)

	return nil
}

// PrintFileStatus prints an artifact diagnostic, naming the producing stage
// when the file is a declared pipeline output.
func (t *TablePrinter) PrintFileStatus(status readiness.FileStatus) error {
	if status.Exists {
		fmt.Fprintf(t.writer, "File %s exists.\n", status.FileName)
		return nil
	}

	fmt.Fprintf(t.writer, "File %s not found.\n", status.FileName)
	if status.ProducingStage != "" {
		fmt.Fprintf(t.writer, "Produced by: %s (status: %s)\n", status.ProducingStage, status.ProducingStageStatus)
		fmt.Fprintf(t.writer, "Wait for %s to complete before reading this file.\n", status.ProducingStage)
	} else {
		fmt.Fprintln(t.writer, "This file is not a declared pipeline output.")
	}

	return nil
}

// PrintChecks prints preflight check results.
func (t *TablePrinter) PrintChecks(results []model.CheckResult) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "CHECK\tSTATUS\tMESSAGE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Status, r.Message)
	}
	tw.Flush()

	ok, warnings, errs := model.CountByStatus(results)
	fmt.Fprintf(t.writer, "\n%d ok, %d warnings, %d errors\n", ok, warnings, errs)

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
