package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"inkstream/internal/handler"
	"inkstream/internal/httputil"
	authmw "inkstream/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	PostHandler         *handler.PostHandler
	CommentHandler      *handler.CommentHandler
	LikeHandler         *handler.LikeHandler
	NotificationHandler *handler.NotificationHandler
	MediaHandler        *handler.MediaHandler // nil when S3 is not configured
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public post endpoints
	r.Get("/posts/latest", cfg.PostHandler.Latest)
	r.Get("/posts/latest/count", cfg.PostHandler.LatestCount)
	r.Get("/posts/{blogID}/comments", cfg.CommentHandler.ListByPost)
	r.Get("/comments/{commentID}/replies", cfg.CommentHandler.ListReplies)

	// Single post fetch resolves the caller when a token is present so owners
	// can load their drafts in edit mode.
	r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/posts/{blogID}", cfg.PostHandler.Get)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Post endpoints
		r.Post("/posts", cfg.PostHandler.Save)
		r.Delete("/posts/{blogID}", cfg.PostHandler.Delete)
		r.Get("/me/posts", cfg.PostHandler.Own)
		r.Get("/me/posts/count", cfg.PostHandler.OwnCount)

		// Comment endpoints
		r.Post("/posts/{blogID}/comments", cfg.CommentHandler.Create)
		r.Delete("/comments/{commentID}", cfg.CommentHandler.Delete)

		// Like endpoints
		r.Post("/posts/{blogID}/like", cfg.LikeHandler.Toggle)
		r.Get("/posts/{blogID}/liked", cfg.LikeHandler.IsLiked)

		// Notification endpoints
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/unseen", cfg.NotificationHandler.Unseen)
			r.Get("/", cfg.NotificationHandler.List)
			r.Get("/count", cfg.NotificationHandler.Count)
		})

		// Media endpoints (direct-to-S3 uploads)
		if cfg.MediaHandler != nil {
			r.Get("/media/banner/presign", cfg.MediaHandler.GetUploadURL)
		}
	})

	return r
}
