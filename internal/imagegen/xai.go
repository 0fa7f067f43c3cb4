package imagegen

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"renderbot/internal/model"
)

// promptTemplate is the fixed system prompt for every render. The vendor is
// expected to answer with an output-image URL followed by caption text.
const promptTemplate = `You are RenderBot Pro. Convert the attached elevation into a photorealistic exterior rendering.
Follow this exact prompt structure (do not deviate):

“Photorealistic exterior rendering of a [style] house strictly matching the attached 2D elevation.
Match every proportion, window/door placement, roof pitch, materials exactly.
Camera: eye-level 3/4 corner view (1.6m). Warm golden-hour lighting from left, soft realistic shadows, light overcast sky.
Ultra-high resolution 8K, cinematic color grading, subtle depth-of-field, lens flare, high-end modern landscaping, reflective surfaces, blurred background with tasteful neighboring buildings and street.
--ar 16:9 --stylize 250 --quality 2”

After the image, add exactly this text:

“✅ RenderBot Pro – Instant Architectural Visualization
Your rendering is ready in seconds — not days.
Want revisions, additional angles, interior views, or animations? Just let me know.”`

var outputImageRe = regexp.MustCompile(`https://[^\s]+\.png|https://[^\s]+\.jpg`)

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type imagePart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client calls an xAI-style chat-completions API that answers with an
// image URL plus caption text.
type Client struct {
	http  *resty.Client
	model string
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(apiKey).
			SetTimeout(90 * time.Second),
		model: model,
	}
}

// Render sends the source image with the fixed prompt and extracts the
// output image and trailing caption from the response text.
func (c *Client) Render(ctx context.Context, srcImageURL string) (*model.RenderOutput, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: promptTemplate},
			{Role: "user", Content: []imagePart{
				{Type: "image_url", ImageURL: imageURL{URL: srcImageURL}},
			}},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("vendor request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("vendor returned %s: %s", resp.Status(), resp.String())
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("vendor response has no choices")
	}

	return extractOutput(out.Choices[0].Message.Content)
}

// extractOutput finds the first output-image URL in the assistant text and
// treats everything after it as the caption.
func extractOutput(content string) (*model.RenderOutput, error) {
	loc := outputImageRe.FindStringIndex(content)
	if loc == nil {
		return nil, model.ErrNoImage
	}
	return &model.RenderOutput{
		ImageURL: content[loc[0]:loc[1]],
		Caption:  strings.TrimSpace(content[loc[1]:]),
	}, nil
}
