package logging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fossillogic/fossil-test/types"
)

// CaseRecord is the JSON line written per case to results.jsonl
type CaseRecord struct {
	RunID          string        `json:"runId"`
	Suite          string        `json:"suite"`
	Name           string        `json:"name"`
	Status         types.Status  `json:"status"`
	FailureMessage string        `json:"failureMessage,omitempty"`
	Location       string        `json:"location,omitempty"`
	Duration       time.Duration `json:"durationNs"`
	Iterations     int           `json:"iterations"`
	Assertions     int           `json:"assertions"`
	Tags           []types.Tag   `json:"tags,omitempty"`
	Mark           types.Mark    `json:"mark,omitempty"`
	Priority       int           `json:"priority"`
}

// NewCaseRecord flattens a case result for serialization
func NewCaseRecord(result *CaseResult, runID string) CaseRecord {
	tc := result.Case
	return CaseRecord{
		RunID:          runID,
		Suite:          result.Suite,
		Name:           tc.Name,
		Status:         tc.Status,
		FailureMessage: tc.FailureMessage,
		Location:       tc.Location(),
		Duration:       tc.ExecutionTime,
		Iterations:     tc.Iterations,
		Assertions:     tc.Assertions,
		Tags:           tc.Tags,
		Mark:           tc.Mark,
		Priority:       tc.Priority,
	}
}

// JSONLinesSink appends one JSON object per case to results.jsonl
type JSONLinesSink struct {
	logger *FileLogger
}

func (s *JSONLinesSink) Consume(result *CaseResult, runID string) error {
	path, err := s.logger.fileForRunID(runID, ResultsFilename)
	if err != nil {
		return err
	}
	w, err := s.logger.writerFor(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(NewCaseRecord(result, runID))
	if err != nil {
		return fmt.Errorf("failed to marshal case %s: %w", result.Case.Name, err)
	}
	return w.Write(append(data, '\n'))
}

func (s *JSONLinesSink) Complete(runID string) error {
	return nil
}
