package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"nexa/internal/gateway/auth"
	"nexa/internal/whop"
)

type embeddedUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

type paymentStatus struct {
	HasPaid     bool       `json:"hasPaid"`
	IsChecking  *bool      `json:"isChecking,omitempty"`
	PlanID      string     `json:"planId,omitempty"`
	PaymentDate *time.Time `json:"paymentDate,omitempty"`
}

// EmbeddedUser returns the verified caller's platform profile. Any failure
// answers 401.
func (h *Handler) EmbeddedUser(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok || id.Anonymous || h.platform == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Not authenticated in Whop embedded experience", Code: codeUnauthenticated})
		return
	}
	u, err := h.platform.RetrieveUser(r.Context(), id.UserID)
	if err != nil {
		h.log.Warn("embedded user lookup failed", zap.String("user_id", id.UserID), zap.Error(err))
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Not authenticated in Whop embedded experience", Code: codeUnauthenticated})
		return
	}
	writeJSON(w, http.StatusOK, embeddedUser{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: u.AvatarURL})
}

// PaymentStatus reports whether the caller holds the configured plan. It
// never fails: every error degrades to hasPaid false.
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	notPaid := func() {
		f := false
		writeJSON(w, http.StatusOK, paymentStatus{HasPaid: false, IsChecking: &f})
	}
	id, ok := auth.FromContext(r.Context())
	if !ok || id.Anonymous || h.platform == nil || h.planID == "" {
		notPaid()
		return
	}
	ms, err := h.platform.ListMemberships(r.Context(), id.UserID)
	if err != nil {
		h.log.Warn("membership lookup failed", zap.String("user_id", id.UserID), zap.Error(err))
		notPaid()
		return
	}
	m, ok := whop.HasAccess(ms, h.planID)
	if !ok {
		notPaid()
		return
	}
	created := m.CreatedAt
	writeJSON(w, http.StatusOK, paymentStatus{HasPaid: true, PlanID: m.PlanID, PaymentDate: &created})
}
