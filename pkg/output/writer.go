package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Writer outputs JSONL records for job lifecycle events.
//
// Implementations must be safe for concurrent use. Each Write* method
// emits a complete record as a single line of JSON followed by a newline.
type Writer interface {
	// WriteSubmission emits a submission record.
	WriteSubmission(sub *SubmissionRecord) error

	// WriteStatus emits a status record.
	WriteStatus(status *StatusRecord) error

	// WriteResult emits a result record.
	WriteResult(result *ResultRecord) error

	// WriteError emits an error record.
	WriteError(rec *ErrorRecord) error
}

// JSONLWriter writes records as newline-delimited JSON to an io.Writer.
//
// JSONLWriter is safe for concurrent use. Writes are serialized using a
// mutex to ensure atomic line writes (no interleaved output).
type JSONLWriter struct {
	w         io.Writer
	scheduler string
	mu        sync.Mutex
}

// NewJSONLWriter creates a new JSONL writer.
func NewJSONLWriter(w io.Writer, scheduler string) *JSONLWriter {
	return &JSONLWriter{w: w, scheduler: scheduler}
}

func (j *JSONLWriter) write(recordType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", recordType, err)
	}
	rec := Record{
		Type:      recordType,
		TS:        time.Now().UTC(),
		Scheduler: j.scheduler,
		Data:      data,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", recordType, err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(line); err != nil {
		return fmt.Errorf("write %s record: %w", recordType, err)
	}
	return nil
}

// WriteSubmission emits a submission record.
func (j *JSONLWriter) WriteSubmission(sub *SubmissionRecord) error {
	return j.write(TypeSubmission, sub)
}

// WriteStatus emits a status record.
func (j *JSONLWriter) WriteStatus(status *StatusRecord) error {
	return j.write(TypeStatus, status)
}

// WriteResult emits a result record.
func (j *JSONLWriter) WriteResult(result *ResultRecord) error {
	return j.write(TypeResult, result)
}

// WriteError emits an error record.
func (j *JSONLWriter) WriteError(rec *ErrorRecord) error {
	return j.write(TypeError, rec)
}
