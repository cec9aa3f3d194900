package handler

import (
	"log"
	"net/http"

	"inkstream/internal/httputil"
	"inkstream/internal/model"
	"inkstream/internal/service"
	"inkstream/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// Unseen handles GET /notifications/unseen
// Answers the badge poll without touching seen state.
func (h *NotificationHandler) Unseen(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.notificationService.HasUnseen(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Unseen notifications handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to check notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// List handles GET /notifications
// Returns one page of the caller's notifications and marks them seen.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	kind := r.URL.Query().Get("filter")
	if kind == "" {
		kind = model.NotificationFilterAll
	}
	if !model.ValidNotificationFilter(kind) {
		httputil.WriteBadRequest(w, "Invalid notification filter")
		return
	}

	page := queryInt(r, "page", 1)
	deletedCount := queryInt(r, "deleted_count", 0)

	resp, err := h.notificationService.List(r.Context(), userID, kind, page, deletedCount)
	if err != nil {
		log.Printf("[ERROR] List notifications handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Count handles GET /notifications/count
func (h *NotificationHandler) Count(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	kind := r.URL.Query().Get("filter")
	if kind == "" {
		kind = model.NotificationFilterAll
	}
	if !model.ValidNotificationFilter(kind) {
		httputil.WriteBadRequest(w, "Invalid notification filter")
		return
	}

	resp, err := h.notificationService.Count(r.Context(), userID, kind)
	if err != nil {
		log.Printf("[ERROR] Count notifications handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to count notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
