package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/thywilljoshua/boq2xlsx/internal/ai"
	"github.com/thywilljoshua/boq2xlsx/internal/convert"
)

type progressView struct {
	w    io.Writer
	bar  *progressbar.ProgressBar
	ok   *color.Color
	warn *color.Color
}

func newProgressView(w io.Writer, total int) *progressView {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Rendering pages…"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &progressView{
		w:    w,
		bar:  bar,
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
	}
}

// drain renders events until the channel is closed.
func (v *progressView) drain(events <-chan convert.Event) {
	for ev := range events {
		switch ev.Kind {
		case convert.EventPageStart, convert.EventCancelling:
			v.bar.Describe(ev.String())
		case convert.EventPageDone:
			_ = v.bar.Add(1)
		case convert.EventPageError:
			_ = v.bar.Clear()
			v.warn.Fprintf(v.w, "⚠ %s\n", ev)
			_ = v.bar.Add(1)
		default:
			if ev.Terminal() {
				v.bar.Describe(ev.String())
				_ = v.bar.Exit()
				fmt.Fprintln(v.w)
			}
		}
	}
}

func (v *progressView) summary(o convert.Outcome) {
	if len(o.Failures) > 0 {
		v.failures(o.Failures)
	}
	doc := o.Document
	switch {
	case o.Output != "" && o.State == convert.StateCancelled:
		v.warn.Fprintf(v.w, "⚠ cancelled: partial workbook with %d sections (%d rows) written to %s\n",
			len(doc.Sections), doc.RowCount(), o.Output)
	case o.Output != "":
		v.ok.Fprintf(v.w, "✓ %d sections (%d rows) written to %s\n",
			len(doc.Sections), doc.RowCount(), o.Output)
	default:
		v.warn.Fprintf(v.w, "⚠ %s: nothing written\n", o.State)
	}
}

func (v *progressView) failures(errs []*ai.ExtractionError) {
	pages := make([]int, len(errs))
	for i, e := range errs {
		pages[i] = e.Page
	}
	sort.Ints(pages)
	list := make([]string, len(pages))
	for i, p := range pages {
		list[i] = fmt.Sprint(p)
	}
	v.warn.Fprintf(v.w, "⚠ %d pages skipped after errors: %s\n", len(pages), strings.Join(list, ", "))
}
