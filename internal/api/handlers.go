/**
 * @description
 * This file contains the HTTP handler functions for the billing-service.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * business logic in the service layer, and writing the HTTP response. All
 * decision logic lives in the service and provider layers; this is thin dispatch.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/langeval/billing-service/internal/app"
	"github.com/langeval/billing-service/internal/domain"
	"github.com/langeval/billing-service/internal/store"
	"github.com/langeval/billing-service/pkg/paypalclient"
)

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service *app.Service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// handleCreateSubscription handles the request to start billing a workspace.
func (h *Handler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := WorkspaceFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		PlanName  string `json:"plan_name"`
		ReturnURL string `json:"return_url"`
		CancelURL string `json:"cancel_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.PlanName == "" || body.ReturnURL == "" || body.CancelURL == "" {
		http.Error(w, "plan_name, return_url and cancel_url are required", http.StatusBadRequest)
		return
	}

	creation, err := h.service.CreateSubscription(r.Context(), domain.SubscriptionRequest{
		PlanName:    body.PlanName,
		WorkspaceID: workspaceID,
		ReturnURL:   body.ReturnURL,
		CancelURL:   body.CancelURL,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, struct {
		*domain.SubscriptionCreation
		ApprovalURL string `json:"approval_url,omitempty"`
	}{creation, creation.ApprovalURL()})
}

// handleVerifySubscription reconciles a subscription against PayPal on demand.
func (h *Handler) handleVerifySubscription(w http.ResponseWriter, r *http.Request) {
	subscriptionID := chi.URLParam(r, "subscriptionID")
	if subscriptionID == "" {
		http.Error(w, "subscription id is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.VerifySubscription(r.Context(), subscriptionID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// handleGetBilling returns the stored billing record for the caller's workspace.
func (h *Handler) handleGetBilling(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := WorkspaceFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	record, err := h.service.GetWorkspaceBilling(r.Context(), workspaceID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

// respondWithError maps domain and provider failures onto HTTP statuses.
func respondWithError(w http.ResponseWriter, err error) {
	var authErr *paypalclient.AuthError
	var apiErr *paypalclient.APIError

	switch {
	case errors.Is(err, domain.ErrUnknownPlan):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrBillingRecordNotFound):
		http.Error(w, "No billing record for workspace", http.StatusNotFound)
	case errors.As(err, &authErr), errors.As(err, &apiErr):
		http.Error(w, "Payment provider request failed", http.StatusBadGateway)
	case errors.Is(err, context.Canceled):
		// Client went away; the status is moot but chi's logger records it.
		http.Error(w, "Request cancelled", 499)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "Payment provider request timed out", http.StatusGatewayTimeout)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
