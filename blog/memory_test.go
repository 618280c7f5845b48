package blog

import (
	"context"
	"testing"
	"time"
)

func seedAuthor(t *testing.T, store *MemoryStore, username string) *User {
	t.Helper()
	u := NewUser(username, username+"@example.com")
	if err := u.SetPassword("a strong password"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func seedPost(t *testing.T, store *MemoryStore, author *User, text string, at time.Time) *Post {
	t.Helper()
	p := &Post{Text: text, AuthorID: author.ID, PubDate: at}
	if err := store.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestMemoryListPostsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	author := seedAuthor(t, store, "anton")

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seedPost(t, store, author, "oldest", base)
	seedPost(t, store, author, "middle", base.Add(time.Hour))
	seedPost(t, store, author, "newest", base.Add(2*time.Hour))

	posts, err := store.ListPosts(ctx, PostFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if posts[0].Text != "newest" || posts[2].Text != "oldest" {
		t.Fatalf("wrong order: %q ... %q", posts[0].Text, posts[2].Text)
	}
	if posts[0].Author != "anton" {
		t.Fatalf("expected denormalized author username, got %q", posts[0].Author)
	}
}

func TestMemoryListPostsFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	anton := seedAuthor(t, store, "anton")
	boris := seedAuthor(t, store, "boris")
	reader := seedAuthor(t, store, "reader")

	group := &Group{Title: "Label", Slug: "label"}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("create group: %v", err)
	}

	now := time.Now().UTC()
	grouped := &Post{Text: "in group", AuthorID: anton.ID, GroupID: &group.ID, PubDate: now}
	if err := store.CreatePost(ctx, grouped); err != nil {
		t.Fatalf("create grouped post: %v", err)
	}
	seedPost(t, store, boris, "no group", now)

	byGroup, err := store.ListPosts(ctx, PostFilter{GroupID: &group.ID}, 10, 0)
	if err != nil {
		t.Fatalf("list by group: %v", err)
	}
	if len(byGroup) != 1 || byGroup[0].Text != "in group" {
		t.Fatalf("group filter returned %v", byGroup)
	}
	if byGroup[0].GroupSlug != "label" {
		t.Fatalf("expected group slug filled in, got %q", byGroup[0].GroupSlug)
	}

	byAuthor, err := store.ListPosts(ctx, PostFilter{AuthorID: boris.ID}, 10, 0)
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(byAuthor) != 1 || byAuthor[0].Text != "no group" {
		t.Fatalf("author filter returned %v", byAuthor)
	}

	if err := store.Follow(ctx, reader.ID, anton.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	followed, err := store.ListPosts(ctx, PostFilter{FollowedBy: reader.ID}, 10, 0)
	if err != nil {
		t.Fatalf("list followed: %v", err)
	}
	if len(followed) != 1 || followed[0].AuthorID != anton.ID {
		t.Fatalf("followed filter returned %v", followed)
	}
}

func TestMemoryGetPostRequiresMatchingAuthor(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	anton := seedAuthor(t, store, "anton")
	seedAuthor(t, store, "boris")
	post := seedPost(t, store, anton, "mine", time.Now().UTC())

	if _, err := store.GetPost(ctx, "anton", post.ID); err != nil {
		t.Fatalf("expected hit for the right author, got %v", err)
	}
	if _, err := store.GetPost(ctx, "boris", post.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for the wrong author, got %v", err)
	}
}

func TestMemoryDeletePostRemovesComments(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	anton := seedAuthor(t, store, "anton")
	post := seedPost(t, store, anton, "doomed", time.Now().UTC())

	c := &Comment{PostID: post.ID, AuthorID: anton.ID, Text: "me too"}
	if err := store.CreateComment(ctx, c); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if err := store.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	comments, err := store.ListComments(ctx, post.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("expected comments to cascade, got %d", len(comments))
	}
}

func TestMemoryUpdatePostKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	anton := seedAuthor(t, store, "anton")
	post := seedPost(t, store, anton, "before", time.Now().UTC())
	originalDate := post.PubDate

	post.Text = "after"
	if err := store.UpdatePost(ctx, post); err != nil {
		t.Fatalf("update post: %v", err)
	}

	got, err := store.GetPost(ctx, "anton", post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Text != "after" {
		t.Fatalf("expected updated text, got %q", got.Text)
	}
	if !got.PubDate.Equal(originalDate) {
		t.Fatalf("pub date changed from %v to %v", originalDate, got.PubDate)
	}
	if got.AuthorID != anton.ID {
		t.Fatalf("author changed to %q", got.AuthorID)
	}
}

func TestMemoryDuplicateUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedAuthor(t, store, "anton")

	dup := NewUser("anton", "other@example.com")
	if err := store.CreateUser(ctx, dup); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
