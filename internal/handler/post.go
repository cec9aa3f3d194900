package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inkstream/internal/httputil"
	"inkstream/internal/model"
	"inkstream/internal/service"
	"inkstream/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// Save handles POST /posts
// Creates a new post or updates an existing one when the body carries an id.
func (h *PostHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.SavePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.postService.Save(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTitleRequired),
			errors.Is(err, model.ErrDescriptionInvalid),
			errors.Is(err, model.ErrBannerRequired),
			errors.Is(err, model.ErrPostContentRequired),
			errors.Is(err, model.ErrTagsInvalid):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only edit your own posts")
		default:
			log.Printf("[ERROR] Save post handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to save post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /posts/{blogID}
// Returns one post. mode=edit loads a draft for its owner without counting a
// read; a plain fetch counts toward the read totals.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	blogID := chi.URLParam(r, "blogID")
	if blogID == "" {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	editMode := r.URL.Query().Get("mode") == "edit"
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	post, err := h.postService.Get(r.Context(), blogID, editMode, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrDraftAccess):
			httputil.WriteForbidden(w, "Draft posts are not accessible")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only edit your own posts")
		default:
			log.Printf("[ERROR] Get post handler: blog=%s err=%v", blogID, err)
			httputil.WriteInternalError(w, "Failed to get post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{blogID}
// Removes a post with its comments and notifications.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	blogID := chi.URLParam(r, "blogID")
	err := h.postService.Delete(r.Context(), blogID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "You can only delete your own posts")
		default:
			log.Printf("[ERROR] Delete post handler: user=%d blog=%s err=%v", userID, blogID, err)
			httputil.WriteInternalError(w, "Failed to delete post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post deleted successfully",
	})
}

// Latest handles GET /posts/latest
// Returns one page of published posts, newest first.
func (h *PostHandler) Latest(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	deletedCount := queryInt(r, "deleted_count", 0)

	resp, err := h.postService.Latest(r.Context(), page, deletedCount)
	if err != nil {
		log.Printf("[ERROR] Latest posts handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to get posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// LatestCount handles GET /posts/latest/count
func (h *PostHandler) LatestCount(w http.ResponseWriter, r *http.Request) {
	resp, err := h.postService.CountLatest(r.Context())
	if err != nil {
		log.Printf("[ERROR] Latest posts count handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to count posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Own handles GET /me/posts
// Returns one page of the caller's posts, drafts or published.
func (h *PostHandler) Own(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	draft := r.URL.Query().Get("draft") == "true"
	query := r.URL.Query().Get("query")
	page := queryInt(r, "page", 1)
	deletedCount := queryInt(r, "deleted_count", 0)

	resp, err := h.postService.Own(r.Context(), userID, draft, query, page, deletedCount)
	if err != nil {
		log.Printf("[ERROR] Own posts handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// OwnCount handles GET /me/posts/count
func (h *PostHandler) OwnCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	draft := r.URL.Query().Get("draft") == "true"
	query := r.URL.Query().Get("query")

	resp, err := h.postService.CountOwn(r.Context(), userID, draft, query)
	if err != nil {
		log.Printf("[ERROR] Own posts count handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to count posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
