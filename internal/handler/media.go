package handler

import (
	"log"
	"net/http"

	"inkstream/internal/httputil"
	"inkstream/internal/service"
	"inkstream/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// GetUploadURL handles GET /media/banner/presign
// Issues a presigned URL the client uploads the banner image to directly.
func (h *MediaHandler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.mediaService.GetUploadURL(r.Context())
	if err != nil {
		log.Printf("[ERROR] Upload URL handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to generate upload URL")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
