package handlers

import (
	"net/http"
	"strings"

	"github.com/ecodanforum/backend/internal/translate"
)

type TranslateHandler struct {
	translator *translate.Translator
}

func NewTranslateHandler(t *translate.Translator) *TranslateHandler {
	return &TranslateHandler{translator: t}
}

func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text       string `json:"text"`
		TargetLang string `json:"targetLang"`
		Locale     string `json:"locale"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := strings.TrimSpace(body.TargetLang)
	if target == "" {
		target = translate.TargetFor(body.Locale)
	}

	result := h.translator.Translate(r.Context(), body.Text, target)
	writeJSON(w, result.StatusCode(), result)
}
