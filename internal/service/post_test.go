package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"inkstream/internal/model"
)

func validPublishRequest() model.SavePostRequest {
	return model.SavePostRequest{
		Title:       "Hello, World!",
		Description: "A first post",
		BannerURL:   "https://cdn.example.com/banners/abc.jpeg",
		Content:     json.RawMessage(`{"blocks":[{"type":"paragraph"}]}`),
		Tags:        []string{"Go", "Testing"},
		Draft:       false,
	}
}

func newPostService(posts *mockPostRepository, users *mockUserRepository, comments *mockCommentRepository, notifs *mockNotificationRepository) *PostService {
	return NewPostService(posts, users, comments, notifs, fakeTxRunner{}, nil)
}

func TestPostService_Save_Publish(t *testing.T) {
	posts := &mockPostRepository{}
	users := &mockUserRepository{}
	svc := newPostService(posts, users, &mockCommentRepository{}, &mockNotificationRepository{})

	resp, err := svc.Save(context.Background(), 1, validPublishRequest())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !strings.HasPrefix(resp.ID, "hello-world-") {
		t.Errorf("blog id = %q, want slug derived from the title", resp.ID)
	}
	if len(users.totalPostsDeltas) != 1 || users.totalPostsDeltas[0] != 1 {
		t.Errorf("total_posts deltas = %v, want [1]", users.totalPostsDeltas)
	}
}

func TestPostService_Save_DraftSkipsPostCounter(t *testing.T) {
	posts := &mockPostRepository{}
	users := &mockUserRepository{}
	svc := newPostService(posts, users, &mockCommentRepository{}, &mockNotificationRepository{})

	req := model.SavePostRequest{Title: "wip", Draft: true}
	if _, err := svc.Save(context.Background(), 1, req); err != nil {
		t.Fatalf("a draft only needs a title, got: %v", err)
	}
	if len(users.totalPostsDeltas) != 0 {
		t.Errorf("total_posts deltas = %v, want none for a draft", users.totalPostsDeltas)
	}
}

func TestPostService_Save_Validation(t *testing.T) {
	svc := newPostService(&mockPostRepository{}, &mockUserRepository{}, &mockCommentRepository{}, &mockNotificationRepository{})

	tests := []struct {
		name    string
		mutate  func(*model.SavePostRequest)
		wantErr error
	}{
		{"missing title", func(r *model.SavePostRequest) { r.Title = " " }, model.ErrTitleRequired},
		{"missing description", func(r *model.SavePostRequest) { r.Description = "" }, model.ErrDescriptionInvalid},
		{"description too long", func(r *model.SavePostRequest) { r.Description = strings.Repeat("x", 201) }, model.ErrDescriptionInvalid},
		{"missing banner", func(r *model.SavePostRequest) { r.BannerURL = "" }, model.ErrBannerRequired},
		{"missing content", func(r *model.SavePostRequest) { r.Content = nil }, model.ErrPostContentRequired},
		{"no tags", func(r *model.SavePostRequest) { r.Tags = nil }, model.ErrTagsInvalid},
		{"too many tags", func(r *model.SavePostRequest) { r.Tags = []string{"a", "b", "c", "d", "e", "f"} }, model.ErrTagsInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPublishRequest()
			tt.mutate(&req)
			_, err := svc.Save(context.Background(), 1, req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPostService_Save_LowercasesTags(t *testing.T) {
	var created *model.Post
	posts := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error {
			created = post
			post.ID = 1
			return nil
		},
	}
	svc := newPostService(posts, &mockUserRepository{}, &mockCommentRepository{}, &mockNotificationRepository{})

	if _, err := svc.Save(context.Background(), 1, validPublishRequest()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if created.Tags[0] != "go" || created.Tags[1] != "testing" {
		t.Errorf("tags = %v, want lowercased", created.Tags)
	}
}

func TestPostService_Get_CountsRead(t *testing.T) {
	posts := &mockPostRepository{
		getByBlogIDFn: func(ctx context.Context, blogID string) (*model.Post, error) {
			return &model.Post{ID: 10, BlogID: blogID, UserID: 1}, nil
		},
	}
	users := &mockUserRepository{}
	svc := newPostService(posts, users, &mockCommentRepository{}, &mockNotificationRepository{})

	post, err := svc.Get(context.Background(), "hello-world-abc123", false, 0)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if got := posts.adjustTotal(model.ActivityTotalReads); got != 1 {
		t.Errorf("total_reads delta = %d, want 1", got)
	}
	if len(users.totalReadsDeltas) != 1 || users.totalReadsDeltas[0] != 1 {
		t.Errorf("author read deltas = %v, want [1]", users.totalReadsDeltas)
	}
	if post.Activity.TotalReads != 1 {
		t.Errorf("returned total_reads = %d, want the fresh value", post.Activity.TotalReads)
	}
}

func TestPostService_Get_EditModeSkipsRead(t *testing.T) {
	posts := &mockPostRepository{
		getByBlogIDFn: func(ctx context.Context, blogID string) (*model.Post, error) {
			return &model.Post{ID: 10, BlogID: blogID, UserID: 1}, nil
		},
	}
	users := &mockUserRepository{}
	svc := newPostService(posts, users, &mockCommentRepository{}, &mockNotificationRepository{})

	if _, err := svc.Get(context.Background(), "hello-world-abc123", true, 1); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := posts.adjustTotal(model.ActivityTotalReads); got != 0 {
		t.Errorf("total_reads delta = %d, want 0 in edit mode", got)
	}
	if len(users.totalReadsDeltas) != 0 {
		t.Errorf("author read deltas = %v, want none in edit mode", users.totalReadsDeltas)
	}
}

func TestPostService_Get_DraftAccess(t *testing.T) {
	posts := &mockPostRepository{
		getByBlogIDFn: func(ctx context.Context, blogID string) (*model.Post, error) {
			return &model.Post{ID: 10, BlogID: blogID, UserID: 1, Draft: true}, nil
		},
	}
	svc := newPostService(posts, &mockUserRepository{}, &mockCommentRepository{}, &mockNotificationRepository{})

	// Plain fetch of a draft is refused.
	if _, err := svc.Get(context.Background(), "wip-post", false, 0); !errors.Is(err, model.ErrDraftAccess) {
		t.Errorf("plain draft fetch err = %v, want ErrDraftAccess", err)
	}

	// Edit fetch by someone else is refused.
	if _, err := svc.Get(context.Background(), "wip-post", true, 2); !errors.Is(err, model.ErrNotPostOwner) {
		t.Errorf("foreign edit fetch err = %v, want ErrNotPostOwner", err)
	}

	// Edit fetch by the owner works.
	if _, err := svc.Get(context.Background(), "wip-post", true, 1); err != nil {
		t.Errorf("owner edit fetch err = %v, want nil", err)
	}
}

func TestPostService_Delete_Cascades(t *testing.T) {
	posts := &mockPostRepository{
		getMetaFn: func(ctx context.Context, blogID string) (*model.PostMeta, error) {
			return publishedPostMeta(), nil
		},
		deleteFn: func(ctx context.Context, postID, userID int64) (bool, error) {
			return false, nil
		},
	}
	users := &mockUserRepository{}
	comments := &mockCommentRepository{}
	notifs := &mockNotificationRepository{}
	svc := newPostService(posts, users, comments, notifs)

	if err := svc.Delete(context.Background(), "hello-world-abc123", 1); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(comments.deletedPostIDs) != 1 || comments.deletedPostIDs[0] != 10 {
		t.Errorf("comments deleted for posts %v, want [10]", comments.deletedPostIDs)
	}
	if len(notifs.deletedPostIDs) != 1 || notifs.deletedPostIDs[0] != 10 {
		t.Errorf("notifications deleted for posts %v, want [10]", notifs.deletedPostIDs)
	}
	if len(users.totalPostsDeltas) != 1 || users.totalPostsDeltas[0] != -1 {
		t.Errorf("total_posts deltas = %v, want [-1]", users.totalPostsDeltas)
	}
}

func TestPostService_Delete_DraftSkipsPostCounter(t *testing.T) {
	posts := &mockPostRepository{
		getMetaFn: func(ctx context.Context, blogID string) (*model.PostMeta, error) {
			return &model.PostMeta{ID: 10, AuthorID: 1, Draft: true, BlogID: blogID}, nil
		},
		deleteFn: func(ctx context.Context, postID, userID int64) (bool, error) {
			return true, nil
		},
	}
	users := &mockUserRepository{}
	svc := newPostService(posts, users, &mockCommentRepository{}, &mockNotificationRepository{})

	if err := svc.Delete(context.Background(), "wip-post", 1); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(users.totalPostsDeltas) != 0 {
		t.Errorf("total_posts deltas = %v, want none for a draft", users.totalPostsDeltas)
	}
}

func TestPostService_Delete_NotOwner(t *testing.T) {
	posts := &mockPostRepository{
		getMetaFn: func(ctx context.Context, blogID string) (*model.PostMeta, error) {
			return publishedPostMeta(), nil
		},
	}
	comments := &mockCommentRepository{}
	svc := newPostService(posts, &mockUserRepository{}, comments, &mockNotificationRepository{})

	err := svc.Delete(context.Background(), "hello-world-abc123", 2)
	if !errors.Is(err, model.ErrNotPostOwner) {
		t.Fatalf("expected ErrNotPostOwner, got: %v", err)
	}
	if len(comments.deletedPostIDs) != 0 {
		t.Error("no comments should be deleted when ownership check fails")
	}
}

func TestMakeBlogID(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello, World!", "hello-world-"},
		{"  Go & Testing 101  ", "go-testing-101-"},
		{"###", "post-"},
	}
	for _, tt := range tests {
		got := makeBlogID(tt.title)
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("makeBlogID(%q) = %q, want prefix %q", tt.title, got, tt.want)
		}
		if len(got) <= len(tt.want) {
			t.Errorf("makeBlogID(%q) = %q, want a random suffix", tt.title, got)
		}
	}
}
