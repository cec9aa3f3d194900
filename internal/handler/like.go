package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkstream/internal/httputil"
	"inkstream/internal/model"
	"inkstream/internal/service"
	"inkstream/internal/transport/http/middleware"
)

type LikeHandler struct {
	likeService *service.LikeService
}

func NewLikeHandler(likeService *service.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// Toggle handles POST /posts/{blogID}/like
// Flips the caller's liked state. The body carries the client's current view;
// the server resolves races so repeated toggles never skew the counter.
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	blogID := chi.URLParam(r, "blogID")

	var req model.LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.likeService.Toggle(r.Context(), blogID, userID, req.LikedByUser)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrDraftAccess):
			httputil.WriteForbidden(w, "Draft posts cannot be liked")
		default:
			log.Printf("[ERROR] Toggle like handler: user=%d blog=%s err=%v", userID, blogID, err)
			httputil.WriteInternalError(w, "Failed to toggle like")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// IsLiked handles GET /posts/{blogID}/liked
// Reports whether the caller currently likes the post.
func (h *LikeHandler) IsLiked(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	blogID := chi.URLParam(r, "blogID")

	resp, err := h.likeService.IsLiked(r.Context(), blogID, userID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] IsLiked handler: user=%d blog=%s err=%v", userID, blogID, err)
		httputil.WriteInternalError(w, "Failed to get liked state")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
