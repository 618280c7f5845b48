// blog/models.go
package blog

import (
	"time"
)

// User is an author and/or reader. The password hash never leaves the
// store layer except through PasswordMatches.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Hash     []byte    `json:"-"`
	Created  time.Time `json:"created"`
}

// Group is a named, sluggable category a post may optionally belong to.
// Groups are seeded out of band, there is no public creation form.
type Group struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Post belongs to exactly one author and at most one group. PubDate is set
// by the store at insert time and never updated afterwards. Author,
// GroupSlug and GroupTitle are denormalized on read for rendering.
type Post struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	PubDate    time.Time `json:"pub_date"`
	AuthorID   string    `json:"author_id"`
	Author     string    `json:"author"`
	GroupID    *int      `json:"group_id"`
	GroupSlug  string    `json:"group_slug"`
	GroupTitle string    `json:"group_title"`
	Image      string    `json:"image"`
}

// Comment belongs to one post and one author. Created is set server-side.
type Comment struct {
	ID       int64     `json:"id"`
	PostID   int64     `json:"post_id"`
	AuthorID string    `json:"author_id"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`
}

// FollowEdge is a directed "user sees author's posts" relationship. The
// (UserID, AuthorID) pair is unique.
type FollowEdge struct {
	UserID   string `json:"user_id"`
	AuthorID string `json:"author_id"`
}
