// blog/store.go
package blog

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a lookup by id, slug or username misses.
	ErrNotFound = errors.New("blog: not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("blog: already exists")
)

// PostFilter narrows ListPosts and CountPosts. Zero value means all posts.
// At most one of the fields is expected to be set per call site.
type PostFilter struct {
	GroupID    *int
	AuthorID   string
	FollowedBy string
}

// Store is the persistence contract shared by the Postgres and in-memory
// implementations. All list methods return posts newest first and comments
// oldest first.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	CreateGroup(ctx context.Context, g *Group) error
	GetGroup(ctx context.Context, id int) (*Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*Group, error)
	ListGroups(ctx context.Context) ([]Group, error)

	CreatePost(ctx context.Context, p *Post) error
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id int64) error
	GetPost(ctx context.Context, username string, id int64) (*Post, error)
	ListPosts(ctx context.Context, f PostFilter, limit, offset int) ([]Post, error)
	CountPosts(ctx context.Context, f PostFilter) (int, error)

	CreateComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, postID int64) ([]Comment, error)

	Follow(ctx context.Context, userID, authorID string) error
	Unfollow(ctx context.Context, userID, authorID string) error
	IsFollowing(ctx context.Context, userID, authorID string) (bool, error)
}
