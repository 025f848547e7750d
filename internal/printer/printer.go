package printer

import (
	"github.com/crewforge/crewd/internal/app/readiness"
	"github.com/crewforge/crewd/internal/model"
)

// Printer knows how to print pipeline information in different formats.
type Printer interface {
	PrintSummary(stages []model.Stage, artifacts []model.ArtifactRecord) error
	PrintStage(stage model.Stage) error
	PrintWorkItems(pending, completed []model.WorkItem) error
	PrintReadiness(result readiness.Result) error
	PrintFileStatus(status readiness.FileStatus) error
	PrintChecks(results []model.CheckResult) error
	PrintMessage(msg string) error
}
