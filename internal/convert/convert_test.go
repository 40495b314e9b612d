package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/thywilljoshua/boq2xlsx/internal/boq"
)

func boqExtractor() *fakeExtractor {
	return newFakeExtractor().
		on(1, func(context.Context, int) (boq.Section, error) {
			return section("Móng",
				boq.LineItem{Seq: "1", Description: "Đào đất", Unit: "m3", Quantity: "24,000"},
				boq.LineItem{Description: "Bê tông"},
			), nil
		}).
		on(2, func(context.Context, int) (boq.Section, error) {
			return section("",
				boq.LineItem{Seq: "2", Description: "Bê tông lót", Unit: "m3", Quantity: "1.200"},
				boq.LineItem{Description: boq.TotalMarker},
			), nil
		}).
		on(3, func(context.Context, int) (boq.Section, error) {
			return section("Thân", boq.LineItem{Seq: "1", Description: "Cột", Unit: "cái", Quantity: "8"}), nil
		})
}

func TestConvertRun_WritesWorkbook(t *testing.T) {
	out := filepath.Join(t.TempDir(), "boq.xlsx")
	o := newTestOrchestrator(boqExtractor())

	outcome, err := Run(context.Background(), o, Request{Path: tempPDF(t), From: 1, To: 3}, Config{Output: out}, nil)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, outcome.State)
	assert.Equal(t, out, outcome.Output)
	require.Len(t, outcome.Document.Sections, 2)
	assert.Equal(t, 4, outcome.Document.RowCount())

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Móng", "Thân"}, f.GetSheetList())

	rows, err := f.GetRows("Móng")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "1. Móng", rows[0][0])
	assert.Equal(t, []string{"1.1", "Đào đất", boq.DefaultReference, "24", "m3"}, rows[2])
	assert.Equal(t, "1.2", rows[4][0])
	assert.Equal(t, "1200", rows[4][3])

	title, err := f.GetCellValue("Thân", "A1")
	require.NoError(t, err)
	assert.Equal(t, "2. Thân", title)
}

func TestConvertRun_CustomReference(t *testing.T) {
	out := filepath.Join(t.TempDir(), "boq.xlsx")
	o := newTestOrchestrator(boqExtractor())

	outcome, err := Run(context.Background(), o, Request{Path: tempPDF(t), From: 1, To: 1},
		Config{Output: out, Reference: "Xem chỉ dẫn kỹ thuật"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Xem chỉ dẫn kỹ thuật", outcome.Document.Sections[0].Rows[0].Reference)
}

func TestConvertRun_CancelledExportsPartial(t *testing.T) {
	tests := []struct {
		name      string
		partial   bool
		wantWrite bool
	}{
		{"partial enabled", true, true},
		{"partial disabled", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			x := boqExtractor().on(3, func(context.Context, int) (boq.Section, error) {
				cancel()
				return section("Thân"), nil
			})
			out := filepath.Join(t.TempDir(), "boq.xlsx")

			outcome, err := Run(ctx, newTestOrchestrator(x), Request{Path: tempPDF(t), From: 1, To: 3},
				Config{Output: out, ExportPartial: tt.partial}, nil)
			require.NoError(t, err)
			assert.Equal(t, StateCancelled, outcome.State)
			require.Len(t, outcome.Document.Sections, 1)

			_, statErr := os.Stat(out)
			if tt.wantWrite {
				assert.NoError(t, statErr)
				assert.Equal(t, out, outcome.Output)
			} else {
				assert.True(t, os.IsNotExist(statErr))
				assert.Empty(t, outcome.Output)
			}
		})
	}
}

func TestConvertRun_NothingExtracted(t *testing.T) {
	out := filepath.Join(t.TempDir(), "boq.xlsx")
	x := newFakeExtractor().on(1, failWith("boom"))

	outcome, err := Run(context.Background(), newTestOrchestrator(x), Request{Path: tempPDF(t), From: 1, To: 1}, Config{Output: out}, nil)
	assert.ErrorIs(t, err, ErrNoPages)
	assert.Equal(t, StateFailed, outcome.State)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertRun_OrphanContinuation(t *testing.T) {
	out := filepath.Join(t.TempDir(), "boq.xlsx")
	x := newFakeExtractor().on(1, func(context.Context, int) (boq.Section, error) {
		return section("", boq.LineItem{Seq: "1", Description: "x"}), nil
	})

	outcome, err := Run(context.Background(), newTestOrchestrator(x), Request{Path: tempPDF(t), From: 1, To: 1}, Config{Output: out}, nil)
	assert.ErrorIs(t, err, boq.ErrOrphanContinuation)
	assert.Equal(t, StateFailed, outcome.State)
}

func TestConvertRun_RequiresOutput(t *testing.T) {
	_, err := Run(context.Background(), newTestOrchestrator(newFakeExtractor()), Request{Path: tempPDF(t), From: 1, To: 1}, Config{}, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
