package api

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard/internal/domain"
)

var resumeContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type resumeUploadBody struct {
	FileName string `json:"file_name"`
}

type resumeUploadResponse struct {
	UploadURL   string    `json:"upload_url"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ResumeUpload handles POST /api/candidate/resume-upload. The object key is
// scoped to the caller so one candidate can never overwrite another's file.
func (h *Handler) ResumeUpload(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body resumeUploadBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	ext := strings.ToLower(filepath.Ext(body.FileName))
	contentType, ok := resumeContentTypes[ext]
	if !ok {
		h.writeError(w, r, domain.ErrValidation("unsupported resume type %q", ext))
		return
	}

	store, err := h.clients.ObjectStorage(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	key := fmt.Sprintf("resumes/%s/%s%s", url.PathEscape(p.ID), uuid.NewString(), ext)
	expires := h.opts.Now().Add(h.opts.UploadExpiry).UTC()
	u, err := store.PresignPut(r.Context(), key, contentType, h.opts.UploadExpiry)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resumeUploadResponse{
		UploadURL:   u,
		Key:         key,
		ContentType: contentType,
		ExpiresAt:   expires,
	})
}
