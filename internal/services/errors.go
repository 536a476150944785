package services

import "fmt"

// Pipeline stage names, as reported in StageError and the HTTP error envelope.
const (
	StageRender     = "render"
	StageExtraction = "extraction"
	StageAnalysis   = "analysis"
	StageModeling   = "modeling"
	StagePersist    = "persistence"
)

// StageError is a failed LLM stage. It always aborts the pipeline.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
