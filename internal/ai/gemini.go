package ai

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

var ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY")

// Gemini is a caller-owned handle to one Gemini model configured for BOQ pages.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: c, model: model, config: generationConfig()}, nil
}

func (g *Gemini) Name() string { return g.model }

// Generate sends the prompt with the page image inline and returns the raw JSON text.
func (g *Gemini) Generate(ctx context.Context, prompt string, png []byte) (string, error) {
	if g.client == nil {
		return "", errors.New("gemini not configured")
	}
	content := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(png, "image/png"),
		}, genai.RoleUser),
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, content, g.config)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return res.Text(), nil
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		TopP:              genai.Ptr[float32](0.1),
		TopK:              genai.Ptr[float32](1),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    sectionSchema(),
	}
}

func sectionSchema() *genai.Schema {
	item := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"stt":                {Type: genai.TypeString},
			"noi_dung_cong_viec": {Type: genai.TypeString},
			"don_vi":             {Type: genai.TypeString},
			"khoi_luong":         {Type: genai.TypeString, Description: "quantity exactly as printed, separators kept"},
		},
		Required:         []string{"stt", "noi_dung_cong_viec", "don_vi", "khoi_luong"},
		PropertyOrdering: []string{"stt", "noi_dung_cong_viec", "don_vi", "khoi_luong"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"ten_hang_muc": {Type: genai.TypeString},
			"cong_viec":    {Type: genai.TypeArray, Items: item},
		},
		Required:         []string{"ten_hang_muc", "cong_viec"},
		PropertyOrdering: []string{"ten_hang_muc", "cong_viec"},
	}
}
