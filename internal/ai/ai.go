package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/thywilljoshua/boq2xlsx/internal/boq"
)

// Model is the opaque structured-extraction call: a fixed prompt plus one
// PNG page in, raw JSON text out.
type Model interface {
	Generate(ctx context.Context, prompt string, png []byte) (string, error)
	Name() string
}

// Cache stores validated page payloads so re-runs skip the model.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// ExtractionError is a per-page failure. It never aborts a run on its own.
type ExtractionError struct {
	Page    int
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("page %d: %s", e.Page, e.Message)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func pageError(page int, msg string, err error) *ExtractionError {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &ExtractionError{Page: page, Message: msg, Err: err}
}

// Client turns model output into validated sections.
type Client struct {
	model Model
	cache Cache
}

func NewClient(model Model) *Client {
	return &Client{model: model}
}

// WithCache returns the client with a payload cache attached.
func (c *Client) WithCache(cache Cache) *Client {
	c.cache = cache
	return c
}

// ExtractPage extracts one page. Every failure is returned as *ExtractionError.
func (c *Client) ExtractPage(ctx context.Context, page int, png []byte) (boq.Section, error) {
	if len(png) == 0 {
		return boq.Section{}, pageError(page, "empty page image", nil)
	}

	key := c.cacheKey(png)
	if c.cache != nil {
		if payload, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			if sec, err := ParseSection(payload); err == nil {
				return sec, nil
			}
		}
	}

	raw, err := c.model.Generate(ctx, Prompt, png)
	if err != nil {
		return boq.Section{}, pageError(page, "model call failed", err)
	}
	js := stripCodeFences(raw)
	if js == "" {
		return boq.Section{}, pageError(page, "empty model response", nil)
	}

	sec, err := ParseSection([]byte(js))
	if err != nil {
		if s := findFirstJSON(js); s != "" && s != js {
			sec, err = ParseSection([]byte(s))
			js = s
		}
	}
	if err != nil {
		return boq.Section{}, pageError(page, "malformed payload", err)
	}

	if c.cache != nil {
		// a cache write failure only costs a future model call
		_ = c.cache.Put(ctx, key, []byte(js))
	}
	return sec, nil
}

func (c *Client) cacheKey(png []byte) string {
	h := sha256.New()
	h.Write([]byte(c.model.Name()))
	h.Write([]byte{0})
	h.Write([]byte(PromptVersion))
	h.Write([]byte{0})
	h.Write(png)
	return hex.EncodeToString(h.Sum(nil))
}
