package consultant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBytes = 16 << 20

const analyzePrompt = `You are a senior hair stylist and image consultant at the TYRANDEVU salon.
Give a personalized consultation based on the customer's photo and description.

1. Face shape: classify the face (Oval, Square, Round, Diamond, Heart).
2. Hair: classify texture (Straight, Wavy, Curly, Coily) and density (Fine, Thick).
3. Suggest 3 distinct modern hairstyles that balance these features.

For each style return name, description (why it suits this face and hair),
faceShapeMatch (the detected shape and the strategy) and maintenanceLevel.
Return a strict JSON array of objects, without Markdown code fences.`

const previewPrompt = `Generate a photorealistic makeover of the person in the image.
Target hairstyle: %q
Style details: %s

Keep the face, features, skin texture and lighting exactly as in the original.
The hair must look like real hair with natural strands, shine and weight.
Blend the hairline naturally and match the scene lighting.`

// ClientConfig configures the HTTP model client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls a generateContent-style REST endpoint. Every call goes
// through the circuit breaker; an open breaker fails fast.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
}

var _ Model = (*Client)(nil)

func NewClient(cfg ClientConfig, cb *gobreaker.CircuitBreaker) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrUnavailable)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrUnavailable)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb: cb,
	}, nil
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Analyze(ctx context.Context, description, image string) ([]Recommendation, error) {
	parts := []part{{Text: analyzePrompt}}
	if data := stripDataURL(image); data != "" {
		parts = append(parts, part{InlineData: &inlineData{MimeType: "image/jpeg", Data: data}})
	}
	parts = append(parts, part{Text: "Customer description and preferences: " + description})

	resp, err := c.generate(ctx, generateRequest{
		Contents:         []content{{Parts: parts}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return nil, err
	}

	text := firstText(resp)
	if text == "" {
		return nil, nil
	}
	var recs []Recommendation
	if err := json.Unmarshal([]byte(stripFences(text)), &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return recs, nil
}

// GeneratePreview returns a data URL, or "" when the model sent no image.
func (c *Client) GeneratePreview(ctx context.Context, image, styleName, styleDescription string) (string, error) {
	resp, err := c.generate(ctx, generateRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MimeType: "image/jpeg", Data: stripDataURL(image)}},
			{Text: fmt.Sprintf(previewPrompt, styleName, styleDescription)},
		}}},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return "", nil
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return "data:image/jpeg;base64," + p.InlineData.Data, nil
		}
	}
	return "", nil
}

func (c *Client) generate(ctx context.Context, body generateRequest) (*generateResponse, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		return nil, err
	}
	return out.(*generateResponse), nil
}

func (c *Client) post(ctx context.Context, body generateRequest) (*generateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Join(ErrBadResponse, err)
	}
	return &out, nil
}

func firstText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

// stripDataURL drops a "data:image/...;base64," header.
func stripDataURL(image string) string {
	if _, data, ok := strings.Cut(image, ","); ok {
		return data
	}
	return image
}

// stripFences removes a Markdown code fence the model may add anyway.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
