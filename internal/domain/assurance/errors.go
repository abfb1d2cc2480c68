package assurance

import (
	"fmt"
	"strings"
)

// ValidationError collects input problems that block an analysis run.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid project data: %s", strings.Join(e.Problems, "; "))
}

// Validate checks identity, stage, focus areas and that at least one document is present.
func (p ProjectData) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Number) == "" {
		problems = append(problems, "Project identity is required for audit context.")
	}
	if len(p.Documents) == 0 {
		problems = append(problems, "The auditor requires project artifacts to proceed with evaluation.")
	}
	if p.Stage != "" && !ValidStage(p.Stage) {
		problems = append(problems, fmt.Sprintf("unknown stage %q", p.Stage))
	}
	for _, f := range p.FocusAreas {
		if !ValidFocusArea(f) {
			problems = append(problems, fmt.Sprintf("unknown focus area %q", f))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
