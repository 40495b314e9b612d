package boq

import (
	"github.com/shopspring/decimal"
)

// TotalMarker is the description the extraction step emits for summary rows.
const TotalMarker = "TOTAL"

// DefaultReference is the technical-reference annotation written next to every numbered row.
const DefaultReference = "Theo quy định tại Chương V"

// LineItem is one work row ("công việc") as reported by the extraction step.
// Quantity is kept as raw text; see Normalize.
type LineItem struct {
	Seq         string `json:"stt"`
	Description string `json:"noi_dung_cong_viec"`
	Unit        string `json:"don_vi"`
	Quantity    string `json:"khoi_luong"`
}

// Section is one "hạng mục" as seen on a single page. An empty Title marks a
// continuation of the previous page's section.
type Section struct {
	Title string     `json:"ten_hang_muc"`
	Items []LineItem `json:"cong_viec"`
}

// PageResult is the outcome of extracting one page. Exactly one of Section
// and Err is set.
type PageResult struct {
	Page    int
	Section *Section
	Err     error
}

func (p PageResult) OK() bool { return p.Err == nil && p.Section != nil }

// Row is an aggregated line item ready for rendering.
type Row struct {
	SubID       string
	Description string
	Reference   string
	Quantity    decimal.NullDecimal
	Unit        string
}

// Blank reports whether the row is a sub-heading without a measured quantity.
func (r Row) Blank() bool { return r.SubID == "" }

// DocSection is a titled section with all of its continuation pages folded in.
type DocSection struct {
	MainIndex int
	Title     string
	Pages     []int
	Rows      []Row
}

// Document is the aggregated BOQ, one DocSection per titled section in page order.
type Document struct {
	Sections []DocSection
}

func (d Document) Empty() bool { return len(d.Sections) == 0 }

func (d Document) RowCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Rows)
	}
	return n
}
