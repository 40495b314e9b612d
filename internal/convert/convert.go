package convert

import (
	"context"
	"fmt"

	"github.com/thywilljoshua/boq2xlsx/internal/boq"
	"github.com/thywilljoshua/boq2xlsx/internal/export"
)

// Run extracts the requested pages, folds them into a document and writes the
// workbook to cfg.Output. A cancelled run is exported only when
// cfg.ExportPartial is set and at least one section was recovered.
func Run(ctx context.Context, orch *Orchestrator, req Request, cfg Config, progress *Progress) (Outcome, error) {
	if cfg.Output == "" {
		return Outcome{State: StateIdle}, fmt.Errorf("%w: output path is empty", ErrInvalidRequest)
	}

	res, err := orch.Run(ctx, req, progress)
	out := Outcome{RunID: res.RunID, State: res.State, Failures: res.Failures}
	if err != nil {
		return out, err
	}

	var opts []boq.AggregateOption
	if cfg.Reference != "" {
		opts = append(opts, boq.WithReference(cfg.Reference))
	}
	doc, err := boq.Aggregate(res.Pages, opts...)
	if err != nil {
		out.State = StateFailed
		return out, fmt.Errorf("aggregate: %w", err)
	}
	out.Document = doc

	if res.State == StateCancelled && (!cfg.ExportPartial || doc.Empty()) {
		return out, nil
	}

	if err := export.Write(doc, cfg.Output); err != nil {
		out.State = StateFailed
		return out, fmt.Errorf("export: %w", err)
	}
	out.Output = cfg.Output
	return out, nil
}
