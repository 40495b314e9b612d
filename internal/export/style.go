package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const headerFill = "BDD7EE"

type styles struct {
	title  int
	header int
	id     int
	text   int
	number int
	unit   int
}

func thinBorder() []excelize.Border {
	sides := []string{"left", "top", "right", "bottom"}
	b := make([]excelize.Border, len(sides))
	for i, s := range sides {
		b[i] = excelize.Border{Type: s, Color: "000000", Style: 1}
	}
	return b
}

func newStyles(f *excelize.File) (styles, error) {
	defs := []*excelize.Style{
		{
			Font:      &excelize.Font{Bold: true},
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		},
		{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		},
		{
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
		},
		{
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
		},
		{
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "top"},
		},
		{
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
		},
	}

	var st styles
	targets := []*int{&st.title, &st.header, &st.id, &st.text, &st.number, &st.unit}
	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return styles{}, fmt.Errorf("create style: %w", err)
		}
		*targets[i] = id
	}
	return st, nil
}
