package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ecodanforum/backend/internal/llm"
)

// Supported target languages.
const (
	LangEnglish  = "en"
	LangJapanese = "ja"
)

// TargetFor returns the translation target as the inverse of the active UI
// locale: English UI translates into Japanese and vice versa.
func TargetFor(locale string) string {
	if locale == LangJapanese {
		return LangEnglish
	}
	return LangJapanese
}

// Result is the typed outcome of a translation call; failures carry a
// user-facing message and never escape as errors.
type Result struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translatedText,omitempty"`
	Error          string `json:"error,omitempty"`
}

// User-facing failure messages. The underlying cause is logged server-side
// only.
const (
	msgNotConfigured = "Translation service is not configured."
	msgUnavailable   = "Translation service unavailable."
	msgEmptyResponse = "Empty translation response."
)

// StatusCode maps the result onto an HTTP status: upstream outages are a bad
// gateway, everything else that fails is a server error.
func (r Result) StatusCode() int {
	switch {
	case r.Success:
		return 200
	case r.Error == msgUnavailable:
		return 502
	default:
		return 500
	}
}

type Translator struct {
	gateway llm.Gateway
	model   string
}

func NewTranslator(gw llm.Gateway, model string) *Translator {
	return &Translator{gateway: gw, model: model}
}

// Translate converts text into targetLang ("en" or "ja"). Empty or
// whitespace-only input short-circuits to a trivial success with the input
// echoed back; no network call is made.
func (t *Translator) Translate(ctx context.Context, text, targetLang string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Success: true, TranslatedText: text}
	}

	if t.gateway == nil || !t.gateway.Configured() {
		return Result{Error: msgNotConfigured}
	}

	targetLanguage := "English"
	if targetLang == LangJapanese {
		targetLanguage = "Japanese"
	}

	resp, err := t.gateway.Chat(ctx, llm.ChatRequest{
		Model: t.model,
		Messages: []llm.Message{
			{
				Role:    "system",
				Content: fmt.Sprintf("You are a professional translator. Translate the user's message into %s. Output only the translated text, with no explanations, no quotes, and no extra commentary.", targetLanguage),
			},
			{Role: "user", Content: text},
		},
		MaxTokens:   1000,
		Temperature: 0.3,
	})
	if err != nil {
		slog.Error("translation call failed", "error", err)
		return Result{Error: msgUnavailable}
	}

	translated := strings.TrimSpace(resp.Content)
	if translated == "" {
		return Result{Error: msgEmptyResponse}
	}

	return Result{Success: true, TranslatedText: translated}
}
