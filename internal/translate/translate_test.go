package translate

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecodanforum/backend/internal/llm"
)

type fakeGateway struct {
	configured bool
	calls      int
	lastReq    llm.ChatRequest
	content    string
	err        error
}

func (g *fakeGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return &llm.ChatResponse{Content: g.content}, nil
}

func (g *fakeGateway) Configured() bool { return g.configured }

func TestTargetForInvertsLocale(t *testing.T) {
	require.Equal(t, LangJapanese, TargetFor(LangEnglish))
	require.Equal(t, LangEnglish, TargetFor(LangJapanese))
	require.Equal(t, LangJapanese, TargetFor(""))
}

func TestTranslateEmptyInputShortCircuits(t *testing.T) {
	gw := &fakeGateway{configured: true}
	tr := NewTranslator(gw, "gpt-4.1-mini")

	res := tr.Translate(context.Background(), "   ", LangJapanese)
	require.True(t, res.Success)
	require.Equal(t, "   ", res.TranslatedText)
	require.Zero(t, gw.calls)
}

func TestTranslateNotConfigured(t *testing.T) {
	tr := NewTranslator(&fakeGateway{configured: false}, "gpt-4.1-mini")

	res := tr.Translate(context.Background(), "hello", LangJapanese)
	require.False(t, res.Success)
	require.Equal(t, "Translation service is not configured.", res.Error)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode())
}

func TestTranslateUpstreamFailure(t *testing.T) {
	gw := &fakeGateway{configured: true, err: errors.New("timeout")}
	tr := NewTranslator(gw, "gpt-4.1-mini")

	res := tr.Translate(context.Background(), "hello", LangJapanese)
	require.False(t, res.Success)
	require.Equal(t, "Translation service unavailable.", res.Error)
	require.Equal(t, http.StatusBadGateway, res.StatusCode())
}

func TestTranslateEmptyResponse(t *testing.T) {
	gw := &fakeGateway{configured: true, content: "  "}
	tr := NewTranslator(gw, "gpt-4.1-mini")

	res := tr.Translate(context.Background(), "hello", LangEnglish)
	require.False(t, res.Success)
	require.Equal(t, "Empty translation response.", res.Error)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode())
}

func TestTranslateSuccess(t *testing.T) {
	gw := &fakeGateway{configured: true, content: "こんにちは"}
	tr := NewTranslator(gw, "gpt-4.1-mini")

	res := tr.Translate(context.Background(), "hello", LangJapanese)
	require.True(t, res.Success)
	require.Equal(t, "こんにちは", res.TranslatedText)
	require.Equal(t, http.StatusOK, res.StatusCode())
	require.Equal(t, 1, gw.calls)
	require.Contains(t, gw.lastReq.Messages[0].Content, "Japanese")
	require.Equal(t, "hello", gw.lastReq.Messages[1].Content)
}
