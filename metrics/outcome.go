package metrics

import (
	"fmt"
	"os"
	"strings"

	"github.com/tuanio/noisy-student-training-aped/errors"
)

// OutcomeWriter appends human-readable evaluation records to a task-named
// outcome file. The file is opened and closed per write so no handle is
// held across batches; sections are only ever appended, never rewritten.
type OutcomeWriter struct {
	path string
}

// NewOutcomeWriter creates a writer for the given outcome file path.
func NewOutcomeWriter(path string) *OutcomeWriter {
	return &OutcomeWriter{path: path}
}

// Path returns the outcome file location.
func (w *OutcomeWriter) Path() string { return w.path }

// WriteBanner appends the section header identifying task and epoch.
func (w *OutcomeWriter) WriteBanner(task string, epoch int) error {
	banner := fmt.Sprintf("%s%s | Epoch: %d%s\n",
		strings.Repeat("=", 10), task, epoch, strings.Repeat("=", 10))
	return w.append(banner)
}

// WriteRecord appends one per-example block: error rate, reference,
// hypothesis, closing rule.
func (w *OutcomeWriter) WriteRecord(rate float64, actual, predicted string) error {
	block := fmt.Sprintf("PER    : %v\nActual : %s\nPredict: %s\n%s\n",
		rate, actual, predicted, strings.Repeat("=", 20))
	return w.append(block)
}

func (w *OutcomeWriter) append(text string) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.OutcomeWrite(w.path).WithCause(err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return errors.OutcomeWrite(w.path).WithCause(err)
	}
	return nil
}
