package boq

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOrphanContinuation means an untitled section arrived before any titled one.
	ErrOrphanContinuation = errors.New("continuation section without a preceding titled section")
	// ErrPageOrder means page results were not supplied in ascending page order.
	ErrPageOrder = errors.New("page results out of order")
)

type aggregateOptions struct {
	reference string
}

// AggregateOption customizes Aggregate.
type AggregateOption func(*aggregateOptions)

// WithReference overrides the annotation written in the technical-reference column.
func WithReference(ref string) AggregateOption {
	return func(o *aggregateOptions) { o.reference = ref }
}

// Aggregate folds ordered page results into a Document. Failed pages are
// skipped; they never consume a main index.
func Aggregate(pages []PageResult, opts ...AggregateOption) (Document, error) {
	o := aggregateOptions{reference: DefaultReference}
	for _, opt := range opts {
		opt(&o)
	}

	var doc Document
	mainIndex := 0
	lastPage := 0
	for _, p := range pages {
		if !p.OK() {
			continue
		}
		if p.Page <= lastPage {
			return Document{}, fmt.Errorf("%w: page %d after page %d", ErrPageOrder, p.Page, lastPage)
		}
		lastPage = p.Page

		title := strings.TrimSpace(p.Section.Title)
		if title != "" {
			mainIndex++
			doc.Sections = append(doc.Sections, DocSection{MainIndex: mainIndex, Title: title})
		} else if len(doc.Sections) == 0 {
			return Document{}, fmt.Errorf("page %d: %w", p.Page, ErrOrphanContinuation)
		}

		cur := &doc.Sections[len(doc.Sections)-1]
		cur.Pages = append(cur.Pages, p.Page)
		for _, item := range p.Section.Items {
			if strings.TrimSpace(item.Description) == TotalMarker {
				continue
			}
			cur.Rows = append(cur.Rows, buildRow(mainIndex, item, o.reference))
		}
	}
	return doc, nil
}

func buildRow(mainIndex int, item LineItem, reference string) Row {
	row := Row{
		Description: item.Description,
		Unit:        item.Unit,
	}
	seq := strings.TrimSpace(item.Seq)
	if seq == "" {
		return row
	}
	row.SubID = fmt.Sprintf("%d.%s", mainIndex, seq)
	row.Reference = reference
	row.Quantity = Normalize(item.Quantity)
	return row
}
