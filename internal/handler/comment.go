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

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create handles POST /posts/{blogID}/comments
// Adds a comment or reply for the authenticated user.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	blogID := chi.URLParam(r, "blogID")

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Create(r.Context(), blogID, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Parent comment not found")
		case errors.Is(err, model.ErrContentRequired):
			httputil.WriteBadRequest(w, "Comment content is required")
		case errors.Is(err, model.ErrContentTooLong):
			httputil.WriteBadRequest(w, "Comment content too long")
		case errors.Is(err, model.ErrReplyDepthExceeded):
			httputil.WriteBadRequest(w, "Replies to replies are not allowed")
		case errors.Is(err, model.ErrParentMismatch):
			httputil.WriteBadRequest(w, "Parent comment does not belong to this post")
		case errors.Is(err, model.ErrDraftAccess):
			httputil.WriteForbidden(w, "Draft posts cannot be commented on")
		default:
			log.Printf("[ERROR] Create comment handler: user=%d blog=%s err=%v", userID, blogID, err)
			httputil.WriteInternalError(w, "Failed to create comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Delete handles DELETE /comments/{commentID}
// Removes a comment and its replies. Allowed for the commenter and the post
// author.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	err = h.commentService.Delete(r.Context(), commentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrCommentForbidden):
			httputil.WriteForbidden(w, "Only the commenter or the post author can delete this comment")
		default:
			log.Printf("[ERROR] Delete comment handler: user=%d comment=%d err=%v", userID, commentID, err)
			httputil.WriteInternalError(w, "Failed to delete comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Comment deleted successfully",
	})
}

// ListByPost handles GET /posts/{blogID}/comments
// Returns a page of top-level comments, paginated by the skip parameter.
func (h *CommentHandler) ListByPost(w http.ResponseWriter, r *http.Request) {
	blogID := chi.URLParam(r, "blogID")
	skip := queryInt(r, "skip", 0)

	resp, err := h.commentService.ListByPost(r.Context(), blogID, skip)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] List comments handler: blog=%s err=%v", blogID, err)
		httputil.WriteInternalError(w, "Failed to get comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// ListReplies handles GET /comments/{commentID}/replies
// Returns a page of one comment's replies, paginated by the skip parameter.
func (h *CommentHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}
	skip := queryInt(r, "skip", 0)

	resp, err := h.commentService.ListReplies(r.Context(), commentID, skip)
	if err != nil {
		if errors.Is(err, model.ErrCommentNotFound) {
			httputil.WriteNotFound(w, "Comment not found")
			return
		}
		log.Printf("[ERROR] List replies handler: comment=%d err=%v", commentID, err)
		httputil.WriteInternalError(w, "Failed to get replies")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
