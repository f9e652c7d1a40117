package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/webrag"
	"google.golang.org/genai"
)

// DefaultTemperature keeps answers close to the sources.
const DefaultTemperature = 0.2

var _ webrag.Generator = (*Generator)(nil)

// Generator answers prompts with a Gemini model.
type Generator struct {
	client      *genai.Client
	Model       string
	Temperature float32
}

// NewGenerator returns a Generator using DefaultGenerationModel.
func NewGenerator(client *genai.Client) *Generator {
	return &Generator{
		client:      client,
		Model:       DefaultGenerationModel,
		Temperature: DefaultTemperature,
	}
}

// Generate sends prompt to the model and returns its text reply. A blocked
// prompt, a safety stop or an empty reply is ReasonRefused.
func (g *Generator) Generate(ctx context.Context, prompt *webrag.Prompt) (string, error) {
	if prompt == nil || strings.TrimSpace(prompt.User) == "" {
		return "", webrag.Errorf(webrag.EINVALID, "prompt required")
	}

	result, err := g.client.Models.GenerateContent(ctx, g.Model,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt.User}},
		}},
		BuildConfig(prompt.System, g.Temperature),
	)
	if err != nil {
		return "", TranslateError(ctx, webrag.EGENERATION, err)
	}
	return ResponseText(result)
}

// BuildConfig returns the generation config carrying the system
// instruction and sampling temperature.
func BuildConfig(system string, temperature float32) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{Temperature: &temperature}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	return config
}

// ResponseText returns the reply text or a refusal error.
func ResponseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil {
		return "", webrag.WrapError(webrag.EGENERATION, webrag.ReasonUnavailable, nil, "gemini returned no response")
	}
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", webrag.WrapError(webrag.EGENERATION, webrag.ReasonRefused, nil, "prompt blocked: %s", fb.BlockReason)
	}
	for _, c := range result.Candidates {
		if c.FinishReason == genai.FinishReasonSafety {
			return "", webrag.WrapError(webrag.EGENERATION, webrag.ReasonRefused, nil, "answer blocked by safety filters")
		}
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", webrag.WrapError(webrag.EGENERATION, webrag.ReasonRefused, nil, "model returned an empty answer")
	}
	return text, nil
}
