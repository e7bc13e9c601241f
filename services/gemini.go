package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"
)

// LLMModelName is the Gemini model to use for oracle calls.
type LLMModelName int32

const (
	Pro25 LLMModelName = iota
	Flash25
	FlashLite25
	Flash20
)

func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite-preview-06-17"
	case Flash20:
		return "gemini-2.0-flash"
	default:
		return "gemini-2.0-flash"
	}
}

const (
	// per-attempt request timeout
	oracleRequestTimeout = 30 * time.Second
	// attempts are immediate, no backoff between them
	oracleMaxAttempts = 3
)

// TextOracleProvider is the single integration point every pipeline stage
// talks to. Implementations must be safe for concurrent use.
type TextOracleProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GoogleTextOracle sends plain text prompts to the Gemini API and returns the
// first candidate's text. Retries any transport or API failure up to
// oracleMaxAttempts times and surfaces the last error.
type GoogleTextOracle struct {
	Model LLMModelName
}

func floatPointer(f float32) *float32 {
	return &f
}

func (o *GoogleTextOracle) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %v", err)
	}

	var lastErr error
	for attempt := 1; attempt <= oracleMaxAttempts; attempt++ {
		text, err := o.generateOnce(ctx, client, prompt)
		if err == nil {
			return text, nil
		}
		fmt.Printf("[Oracle] Attempt %d/%d failed: %v\n", attempt, oracleMaxAttempts, err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("oracle call failed after %d attempts: %v", oracleMaxAttempts, lastErr)
}

func (o *GoogleTextOracle) generateOnce(ctx context.Context, client *genai.Client, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, oracleRequestTimeout)
	defer cancel()

	result, err := client.Models.GenerateContent(callCtx, o.Model.String(), []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}, &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: 8192,
		Temperature:     floatPointer(0.8),
	})
	if err != nil {
		return "", err
	}
	if result.PromptFeedback != nil {
		return "", fmt.Errorf("content violation: %s", result.PromptFeedback.BlockReasonMessage)
	}
	if result.UsageMetadata != nil {
		fmt.Printf("[Oracle] IT: %d, OT: %d, TT: %d\n",
			result.UsageMetadata.PromptTokenCount,
			result.UsageMetadata.CandidatesTokenCount,
			result.UsageMetadata.TotalTokenCount)
	}
	// empty string when the response shape is unexpected, callers fall back
	return result.Text(), nil
}
