package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"inkstream/internal/database"
	"inkstream/internal/model"
	"inkstream/internal/pagination"
	"inkstream/internal/queue"
	"inkstream/internal/repository"
)

type PostService struct {
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	notifRepo   repository.NotificationRepository
	tx          database.TxRunner
	publisher   queue.Publisher
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	commentRepo repository.CommentRepository,
	notifRepo repository.NotificationRepository,
	tx database.TxRunner,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		notifRepo:   notifRepo,
		tx:          tx,
		publisher:   publisher,
	}
}

// Save creates a post or updates an existing one when req.ID names a public
// blog id. Drafts only need a title; publishing requires the full document.
func (s *PostService) Save(ctx context.Context, userID int64, req model.SavePostRequest) (*model.SavePostResponse, error) {
	if err := validateSaveRequest(req); err != nil {
		return nil, err
	}

	tags := make([]string, len(req.Tags))
	for i, tag := range req.Tags {
		tags[i] = strings.ToLower(tag)
	}
	req.Tags = tags

	if req.ID != nil {
		if err := s.postRepo.Update(ctx, *req.ID, userID, req); err != nil {
			return nil, err
		}
		log.Printf("[PostService] User %d updated post %s (draft=%t)", userID, *req.ID, req.Draft)
		return &model.SavePostResponse{ID: *req.ID}, nil
	}

	post := &model.Post{
		BlogID:      makeBlogID(req.Title),
		UserID:      userID,
		Title:       req.Title,
		Description: nullable(req.Description),
		BannerURL:   nullable(req.BannerURL),
		Content:     req.Content,
		Tags:        pq.StringArray(req.Tags),
		Draft:       req.Draft,
	}

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.postRepo.Create(ctx, tx, post); err != nil {
			return err
		}
		if !post.Draft {
			return s.userRepo.IncrementTotalPosts(ctx, tx, userID, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %d created post %s (draft=%t)", userID, post.BlogID, post.Draft)
	return &model.SavePostResponse{ID: post.BlogID}, nil
}

// Get fetches one post for reading or editing. A plain read counts toward the
// post's and the author's read totals; an edit fetch does not, and is the only
// way to load a draft.
func (s *PostService) Get(ctx context.Context, blogID string, editMode bool, userID int64) (*model.Post, error) {
	post, err := s.postRepo.GetByBlogID(ctx, blogID)
	if err != nil {
		return nil, err
	}

	if post.Draft {
		if !editMode {
			return nil, model.ErrDraftAccess
		}
		if userID != post.UserID {
			return nil, model.ErrNotPostOwner
		}
	}

	if !editMode && !post.Draft {
		if err := s.postRepo.AdjustActivity(ctx, nil, post.ID, model.ActivityTotalReads, 1); err != nil {
			log.Printf("[PostService] Failed to count read on post %d: %v", post.ID, err)
		}
		if err := s.userRepo.IncrementTotalReads(ctx, post.UserID, 1); err != nil {
			log.Printf("[PostService] Failed to count read for author %d: %v", post.UserID, err)
		}
		post.Activity.TotalReads++
	}

	return post, nil
}

// Delete removes a post with everything hanging from it: comments, replies
// and every notification that referenced the post. One transaction, so a
// half-deleted post can never be observed.
func (s *PostService) Delete(ctx context.Context, blogID string, userID int64) error {
	meta, err := s.postRepo.GetMeta(ctx, blogID)
	if err != nil {
		return err
	}
	if userID != meta.AuthorID {
		return model.ErrNotPostOwner
	}

	// Children go before the post row so the foreign keys hold at every step.
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.notifRepo.DeleteByPost(ctx, tx, meta.ID); err != nil {
			return err
		}
		if err := s.commentRepo.DeleteByPost(ctx, tx, meta.ID); err != nil {
			return err
		}
		draft, err := s.postRepo.Delete(ctx, tx, meta.ID, userID)
		if err != nil {
			return err
		}
		if !draft {
			return s.userRepo.IncrementTotalPosts(ctx, tx, userID, -1)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[PostService] User %d deleted post %s", userID, blogID)

	if s.publisher != nil {
		event := queue.NewPostDeletedEvent(meta.ID, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamEngagement, event); err != nil {
			log.Printf("[PostService] Failed to publish PostDeleted event: %v", err)
		}
	}
	return nil
}

// Latest returns one page of published posts, newest first.
func (s *PostService) Latest(ctx context.Context, page, deletedCount int) (*model.PostListResponse, error) {
	req := pagination.Request{Page: page, PageSize: pagination.PostPageSize, DeletedCount: deletedCount}
	posts, err := s.postRepo.GetLatest(ctx, req.Offset(), req.Limit())
	if err != nil {
		return nil, fmt.Errorf("get latest posts: %w", err)
	}
	return &model.PostListResponse{Blogs: posts}, nil
}

// CountLatest returns the total of published posts.
func (s *PostService) CountLatest(ctx context.Context) (*model.CountResponse, error) {
	total, err := s.postRepo.CountPublished(ctx)
	if err != nil {
		return nil, err
	}
	return &model.CountResponse{TotalDocs: total}, nil
}

// Own returns one page of the caller's posts, drafts or published, optionally
// filtered by a title or tag query.
func (s *PostService) Own(ctx context.Context, userID int64, draft bool, query string, page, deletedCount int) (*model.PostListResponse, error) {
	req := pagination.Request{Page: page, PageSize: pagination.PostPageSize, DeletedCount: deletedCount}
	posts, err := s.postRepo.GetByAuthor(ctx, userID, draft, query, req.Offset(), req.Limit())
	if err != nil {
		return nil, fmt.Errorf("get own posts: %w", err)
	}
	return &model.PostListResponse{Blogs: posts}, nil
}

// CountOwn returns the total matching Own's filter.
func (s *PostService) CountOwn(ctx context.Context, userID int64, draft bool, query string) (*model.CountResponse, error) {
	total, err := s.postRepo.CountByAuthor(ctx, userID, draft, query)
	if err != nil {
		return nil, err
	}
	return &model.CountResponse{TotalDocs: total}, nil
}

func validateSaveRequest(req model.SavePostRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return model.ErrTitleRequired
	}
	if req.Draft {
		return nil
	}

	if strings.TrimSpace(req.Description) == "" || len(req.Description) > model.MaxPostDescriptionLength {
		return model.ErrDescriptionInvalid
	}
	if strings.TrimSpace(req.BannerURL) == "" {
		return model.ErrBannerRequired
	}
	if len(bytes.TrimSpace(req.Content)) == 0 || string(bytes.TrimSpace(req.Content)) == "null" {
		return model.ErrPostContentRequired
	}
	if len(req.Tags) == 0 || len(req.Tags) > model.MaxPostTags {
		return model.ErrTagsInvalid
	}
	return nil
}

// makeBlogID derives the public url slug from the title plus a random suffix
// so two posts with the same title never collide.
func makeBlogID(title string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, title)
	slug = strings.Join(strings.Fields(slug), "-")
	if slug == "" {
		slug = "post"
	}
	return slug + "-" + uuid.NewString()[:8]
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
