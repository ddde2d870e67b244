package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v82"

	"jobboard/internal/db/repository"
	"jobboard/internal/domain"
	"jobboard/internal/service/billing"
)

type profileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      *string   `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

func profileToAPI(p domain.Profile) profileResponse {
	out := profileResponse{ID: p.ID, Email: p.Email, FullName: p.FullName, UpdatedAt: p.UpdatedAt}
	if p.Role != "" {
		role := string(p.Role)
		out.Role = &role
	}
	return out
}

type listUsersResponse struct {
	Users         []profileResponse `json:"users"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// ListUsers handles GET /api/admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, r, domain.ErrValidation("page_size must be an integer"))
			return
		}
		page.Size = n
	}

	admin, err := h.clients.AdminDB(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	profiles, total, err := repository.NewProfileRepo(admin.DB).List(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := listUsersResponse{
		Users:         make([]profileResponse, 0, len(profiles)),
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	}
	for _, p := range profiles {
		out.Users = append(out.Users, profileToAPI(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateUserBody struct {
	Role string `json:"role"`
}

// UpdateUser handles PATCH /api/admin/users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var body updateUserBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	req := domain.UpdateRoleRequest{UserID: chi.URLParam(r, "id"), Role: body.Role}
	role, err := req.Validate()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	admin, err := h.clients.AdminDB(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	profiles := repository.NewProfileRepo(admin.DB)
	if err := profiles.SetRole(r.Context(), req.UserID, role); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := profiles.Get(r.Context(), req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	caller, _ := domain.PrincipalFromContext(r.Context())
	h.logger.InfoContext(r.Context(), "role updated", "admin_id", caller.ID, "user_id", req.UserID, "role", string(role))
	writeJSON(w, http.StatusOK, profileToAPI(*p))
}

// DeleteUser handles DELETE /api/admin/users/{id}. The profile and
// subscriptions go with the user, so the next request bearing that user's
// token fails role resolution.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller, err := principal(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if id == caller.ID {
		h.writeError(w, r, domain.ErrValidation("cannot delete your own account"))
		return
	}

	admin, err := h.clients.AdminDB(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := repository.NewUserRepo(admin.DB).Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user deleted", "admin_id", caller.ID, "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type cancelSubscriptionResponse struct {
	Subscription string  `json:"subscription"`
	Status       string  `json:"status"`
	UserID       string  `json:"user_id,omitempty"`
	Role         *string `json:"role,omitempty"`
}

// CancelSubscription handles POST /api/admin/subscriptions/{id}/cancel. The
// local row and the owner's role are synced from Stripe's response.
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, r, domain.ErrValidation("subscription id is required"))
		return
	}

	sc, err := h.clients.Billing(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sub, err := sc.Subscriptions.Cancel(id, &stripe.SubscriptionCancelParams{
		Params: stripe.Params{Context: r.Context()},
	})
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound {
			h.writeError(w, r, domain.ErrNotFound("subscription %q not found", id))
			return
		}
		h.writeError(w, r, err)
		return
	}

	out := cancelSubscriptionResponse{Subscription: sub.ID, Status: string(sub.Status)}

	admin, err := h.clients.AdminDB(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	svc := billing.NewSyncService(
		repository.NewSubscriptionRepo(admin.DB), repository.NewProfileRepo(admin.DB), h.logger)
	res, err := svc.Apply(r.Context(), sub)
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
		h.logger.WarnContext(r.Context(), "cancelled subscription has no local owner", "subscription", sub.ID)
	case err != nil:
		h.writeError(w, r, err)
		return
	default:
		out.UserID = res.UserID
		if res.RoleAfter != "" {
			role := string(res.RoleAfter)
			out.Role = &role
		}
	}
	writeJSON(w, http.StatusOK, out)
}
