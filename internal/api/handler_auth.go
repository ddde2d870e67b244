package api

import (
	"errors"
	"net/http"

	"jobboard/internal/db/repository"
	"jobboard/internal/domain"
)

type meResponse struct {
	ID      string           `json:"id"`
	Email   string           `json:"email"`
	Profile *profileResponse `json:"profile"`
}

// Me handles GET /api/auth/me. It sits behind authentication only, so a
// user without a profile row still gets their identity back.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := meResponse{ID: p.ID, Email: p.Email}

	admin, err := h.clients.AdminDB(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	profile, err := repository.NewProfileRepo(admin.DB).Get(r.Context(), p.ID)
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
	case err != nil:
		h.writeError(w, r, err)
		return
	default:
		resp := profileToAPI(*profile)
		out.Profile = &resp
	}
	writeJSON(w, http.StatusOK, out)
}
