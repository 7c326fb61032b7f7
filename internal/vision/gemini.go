package vision

import (
	"context"
	"fmt"
	"os"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.30
	geminiOutputPricePerMillion = 2.50
)

var platePrompt = dedent.Dedent(`
	Analyze this photo of an HVAC equipment data plate (manufacturer nameplate).

	First decide whether the photo actually shows a data plate. If it does not,
	respond with {"is_data_plate": false, "confidence": <0-1>} and nothing else.

	If it is a data plate, extract these fields. Use null for any field that is
	not readable on the plate. Do not guess values that are not printed.

	{
	  "is_data_plate": true,
	  "confidence": <0-1>,
	  "manufacturer": "",
	  "model_line": "",
	  "model_number": "",
	  "serial_number": "",
	  "mfr_date": "YYYY-MM",
	  "refrigerant_type": "",
	  "refrigerant_charge_lbs": 0,
	  "refrigerant_charge_oz": 0,
	  "tonnage": 0,
	  "capacity_btu": 0,
	  "volts": "",
	  "phase": 1,
	  "hz": 60,
	  "seer": 0
	}

	Notes:
	- tonnage can often be derived from the model number (BTU thousands / 12,
	  e.g. "048" in the model means 48,000 BTU = 4 tons).
	- volts should be the voltage rating string as printed (e.g. "208/230V").

	Respond ONLY with the JSON object, no markdown or other text.`)

// GeminiAnalyzer implements Analyzer using Google's Gemini vision API.
type GeminiAnalyzer struct {
	client *genai.Client
}

// NewGeminiAnalyzer creates a Gemini-based plate analyzer. It uses the
// GEMINI_API_KEY environment variable for authentication.
func NewGeminiAnalyzer(ctx context.Context) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAnalyzer{client: client}, nil
}

// AnalyzePlate implements the Analyzer interface using Gemini.
func (g *GeminiAnalyzer) AnalyzePlate(ctx context.Context, imageData []byte) (*PlateResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(platePrompt),
		{InlineData: &genai.Blob{Data: imageData, MIMEType: "image/jpeg"}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	reading, err := ParsePlateJSON(result.Text())
	if err != nil {
		return nil, err
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens)
	}

	log.Info().
		Str("model", geminiModel).
		Bool("isDataPlate", reading.IsDataPlate).
		Float64("confidence", reading.Confidence).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("plate ocr llm call")

	return &PlateResult{Reading: reading, Usage: usage}, nil
}

func calculateGeminiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * geminiInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * geminiOutputPricePerMillion
	return inputCost + outputCost
}
