package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"jobboard/internal/domain"
)

const maxEmbeddingInput = 8000

type embeddingBody struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	Embedding  []float32 `json:"embedding"`
}

// CreateEmbedding handles POST /api/recruiter/embeddings.
func (h *Handler) CreateEmbedding(w http.ResponseWriter, r *http.Request) {
	var body embeddingBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	text := strings.TrimSpace(strings.ReplaceAll(body.Text, "\n", " "))
	switch {
	case text == "":
		h.writeError(w, r, domain.ErrValidation("text is required"))
		return
	case len(text) > maxEmbeddingInput:
		h.writeError(w, r, domain.ErrValidation("text exceeds %d bytes", maxEmbeddingInput))
		return
	}

	ai, err := h.clients.AI(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := ai.CreateEmbeddings(r.Context(), openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.AdaEmbeddingV2,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(resp.Data) == 0 {
		h.writeError(w, r, errors.New("embedding provider returned no vectors"))
		return
	}

	vec := resp.Data[0].Embedding
	writeJSON(w, http.StatusOK, embeddingResponse{
		Model:      string(openai.AdaEmbeddingV2),
		Dimensions: len(vec),
		Embedding:  vec,
	})
}
