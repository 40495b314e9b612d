package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/thywilljoshua/boq2xlsx/internal/boq"
)

type wireSection struct {
	Title *string     `json:"ten_hang_muc"`
	Items *[]wireItem `json:"cong_viec"`
}

type wireItem struct {
	Seq         flexText     `json:"stt"`
	Description *string      `json:"noi_dung_cong_viec"`
	Unit        flexText     `json:"don_vi"`
	Quantity    flexQuantity `json:"khoi_luong"`
}

// flexText accepts a string, a number (kept literally) or null.
type flexText string

func (f *flexText) UnmarshalJSON(b []byte) error {
	s, err := scalarText(b)
	if err != nil {
		return err
	}
	*f = flexText(s)
	return nil
}

var plainJSONNumber = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// flexQuantity accepts a string, a number or null. Numbers are rewritten with
// a decimal comma so boq.Normalize sees a single convention.
type flexQuantity string

func (f *flexQuantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')) {
		// keep the literal digits; exponents are refused rather than expanded
		if !plainJSONNumber.Match(b) {
			return fmt.Errorf("quantity %s: only plain decimal numbers are accepted", truncate(string(b), 40))
		}
		*f = flexQuantity(strings.Replace(string(b), ".", ",", 1))
		return nil
	}
	s, err := scalarText(b)
	if err != nil {
		return err
	}
	*f = flexQuantity(s)
	return nil
}

func scalarText(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, string(b) == "null":
		return "", nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", fmt.Errorf("expected string or number, got %s", truncate(string(b), 40))
	}
}

var (
	errMissingTitle = errors.New(`missing "ten_hang_muc"`)
	errMissingItems = errors.New(`missing "cong_viec"`)
)

var titleLabelRe = regexp.MustCompile(`(?i)^\s*HẠNG\s+MỤC\s*:\s*`)

// ParseSection decodes and validates one page payload.
func ParseSection(payload []byte) (boq.Section, error) {
	var w wireSection
	if err := json.Unmarshal(payload, &w); err != nil {
		return boq.Section{}, fmt.Errorf("decode section: %w (raw: %s)", err, truncate(string(payload), 200))
	}
	if w.Title == nil {
		return boq.Section{}, errMissingTitle
	}
	if w.Items == nil {
		return boq.Section{}, errMissingItems
	}

	sec := boq.Section{
		Title: cleanTitle(*w.Title),
		Items: make([]boq.LineItem, 0, len(*w.Items)),
	}
	for i, it := range *w.Items {
		if it.Description == nil {
			return boq.Section{}, fmt.Errorf(`item %d: missing "noi_dung_cong_viec"`, i+1)
		}
		sec.Items = append(sec.Items, boq.LineItem{
			Seq:         clean(string(it.Seq)),
			Description: clean(*it.Description),
			Unit:        clean(string(it.Unit)),
			Quantity:    clean(string(it.Quantity)),
		})
	}
	return sec, nil
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func cleanTitle(s string) string {
	s = clean(s)
	return strings.TrimSpace(titleLabelRe.ReplaceAllString(s, ""))
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// findFirstJSON returns the first balanced {...} object in s, ignoring braces
// inside string literals.
func findFirstJSON(s string) string {
	start, depth := -1, 0
	inString, escaped := false, false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
