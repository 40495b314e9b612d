package ai

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	mu    sync.Mutex
	out   string
	err   error
	calls int
}

func (f *fakeModel) Generate(ctx context.Context, prompt string, png []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.out, f.err
}

func (f *fakeModel) Name() string { return "fake" }

type memCache struct {
	data map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memCache) Put(ctx context.Context, key string, payload []byte) error {
	m.data[key] = payload
	return nil
}

var png = []byte{0x89, 'P', 'N', 'G'}

func TestExtractPage_Valid(t *testing.T) {
	m := &fakeModel{out: `{"ten_hang_muc":"HẠNG MỤC : Nền đường","cong_viec":[
		{"stt":"1","noi_dung_cong_viec":"Đào đất","don_vi":"100m3","khoi_luong":"24,000"},
		{"stt":2,"noi_dung_cong_viec":"Đắp đất","don_vi":"m3","khoi_luong":24.5},
		{"stt":"","noi_dung_cong_viec":"Phần móng","don_vi":"","khoi_luong":null}]}`}
	c := NewClient(m)

	sec, err := c.ExtractPage(context.Background(), 3, png)
	require.NoError(t, err)
	assert.Equal(t, "Nền đường", sec.Title)
	require.Len(t, sec.Items, 3)
	assert.Equal(t, "24,000", sec.Items[0].Quantity)
	assert.Equal(t, "2", sec.Items[1].Seq)
	assert.Equal(t, "24,5", sec.Items[1].Quantity)
	assert.Empty(t, sec.Items[2].Seq)
	assert.Empty(t, sec.Items[2].Quantity)
}

func TestExtractPage_CodeFencesAndChatter(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"fenced", "```json\n{\"ten_hang_muc\":\"\",\"cong_viec\":[]}\n```"},
		{"leading text", "Here you go: {\"ten_hang_muc\":\"A {draft}\",\"cong_viec\":[]} thanks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(&fakeModel{out: tt.out})
			_, err := c.ExtractPage(context.Background(), 1, png)
			assert.NoError(t, err)
		})
	}
}

func TestExtractPage_Failures(t *testing.T) {
	cause := errors.New("deadline exceeded")
	tests := []struct {
		name  string
		model *fakeModel
		want  string
	}{
		{"model error", &fakeModel{err: cause}, "model call failed"},
		{"empty response", &fakeModel{out: "   "}, "empty model response"},
		{"not json", &fakeModel{out: "sorry, I cannot read this page"}, "malformed payload"},
		{"missing title", &fakeModel{out: `{"cong_viec":[]}`}, "ten_hang_muc"},
		{"missing items", &fakeModel{out: `{"ten_hang_muc":"A"}`}, "cong_viec"},
		{"missing description", &fakeModel{out: `{"ten_hang_muc":"A","cong_viec":[{"stt":"1"}]}`}, "noi_dung_cong_viec"},
		{"bad quantity type", &fakeModel{out: `{"ten_hang_muc":"A","cong_viec":[{"noi_dung_cong_viec":"x","khoi_luong":true}]}`}, "malformed payload"},
		{"exponent quantity", &fakeModel{out: `{"ten_hang_muc":"A","cong_viec":[{"noi_dung_cong_viec":"x","khoi_luong":1e200000000}]}`}, "only plain decimal numbers"},
		{"negative exponent quantity", &fakeModel{out: `{"ten_hang_muc":"A","cong_viec":[{"noi_dung_cong_viec":"x","khoi_luong":-2.5E-3}]}`}, "only plain decimal numbers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.model).ExtractPage(context.Background(), 7, png)
			require.Error(t, err)

			var xerr *ExtractionError
			require.ErrorAs(t, err, &xerr)
			assert.Equal(t, 7, xerr.Page)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "page 7")
		})
	}
}

func TestParseSection_NumericQuantityKeepsDigits(t *testing.T) {
	sec, err := ParseSection([]byte(`{"ten_hang_muc":"A","cong_viec":[
		{"noi_dung_cong_viec":"x","khoi_luong":1.50},
		{"noi_dung_cong_viec":"y","khoi_luong":-3}]}`))
	require.NoError(t, err)
	assert.Equal(t, "1,50", sec.Items[0].Quantity)
	assert.Equal(t, "-3", sec.Items[1].Quantity)
}

func TestExtractPage_UnwrapsCause(t *testing.T) {
	cause := errors.New("payload too large")
	_, err := NewClient(&fakeModel{err: cause}).ExtractPage(context.Background(), 1, png)
	assert.ErrorIs(t, err, cause)
}

func TestExtractPage_EmptyImage(t *testing.T) {
	m := &fakeModel{out: `{"ten_hang_muc":"","cong_viec":[]}`}
	_, err := NewClient(m).ExtractPage(context.Background(), 1, nil)
	require.Error(t, err)
	assert.Zero(t, m.calls)
}

func TestExtractPage_Cache(t *testing.T) {
	m := &fakeModel{out: `{"ten_hang_muc":"A","cong_viec":[]}`}
	cache := &memCache{data: map[string][]byte{}}
	c := NewClient(m).WithCache(cache)

	for range 3 {
		sec, err := c.ExtractPage(context.Background(), 1, png)
		require.NoError(t, err)
		assert.Equal(t, "A", sec.Title)
	}
	assert.Equal(t, 1, m.calls)
	assert.Len(t, cache.data, 1)
}

func TestExtractPage_CacheSkipsInvalidPayloads(t *testing.T) {
	m := &fakeModel{out: `not json`}
	cache := &memCache{data: map[string][]byte{}}
	c := NewClient(m).WithCache(cache)

	_, err := c.ExtractPage(context.Background(), 1, png)
	require.Error(t, err)
	assert.Empty(t, cache.data)
}

func TestFindFirstJSON(t *testing.T) {
	assert.Equal(t, `{"a":"}"}`, findFirstJSON(`noise {"a":"}"} tail {"b":1}`))
	assert.Empty(t, findFirstJSON("no object here"))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`  {"a":1} `))
}
