package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thywilljoshua/boq2xlsx/internal/ai"
	"github.com/thywilljoshua/boq2xlsx/internal/boq"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNoPages        = errors.New("no pages extracted")
	ErrBusy           = errors.New("extraction already running")
)

// State of an extraction run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// PageImage is one rasterized page. Page is 1-based.
type PageImage struct {
	Page int
	PNG  []byte
}

// Request selects the pages of one source document.
type Request struct {
	Path string
	From int
	To   int
	Zoom float64
}

// Validate rejects caller input errors before any work starts.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("%w: source path is empty", ErrInvalidRequest)
	}
	if ext := strings.ToLower(filepath.Ext(r.Path)); ext != ".pdf" {
		return fmt.Errorf("%w: %s is not a PDF", ErrInvalidRequest, r.Path)
	}
	if r.From < 1 {
		return fmt.Errorf("%w: from page must be >= 1, got %d", ErrInvalidRequest, r.From)
	}
	if r.From > r.To {
		return fmt.Errorf("%w: from page %d is after to page %d", ErrInvalidRequest, r.From, r.To)
	}
	if r.Zoom < 0 {
		return fmt.Errorf("%w: zoom must be positive, got %g", ErrInvalidRequest, r.Zoom)
	}
	return nil
}

// Result is what the page loop produced. Pages holds successful pages only,
// in ascending page order.
type Result struct {
	RunID    string
	State    State
	Pages    []boq.PageResult
	Failures []*ai.ExtractionError
}

// Config controls the end-to-end conversion.
type Config struct {
	Output        string
	ExportPartial bool
	Reference     string
}

// Outcome of a full extract → aggregate → export run.
// Output is empty when nothing was written.
type Outcome struct {
	RunID    string
	State    State
	Document boq.Document
	Failures []*ai.ExtractionError
	Output   string
}
