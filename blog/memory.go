// blog/memory.go
package blog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory Store. It backs the handler tests
// and dev mode, and mirrors the schema's cascade rules so behavior matches
// the Postgres implementation.
type MemoryStore struct {
	mu        sync.RWMutex
	nextPost  int64
	nextCmt   int64
	nextGroup int
	users     map[string]*User
	groups    map[int]*Group
	posts     map[int64]*Post
	comments  map[int64]*Comment
	follows   map[FollowEdge]struct{}
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextPost:  1,
		nextCmt:   1,
		nextGroup: 1,
		users:     make(map[string]*User),
		groups:    make(map[int]*Group),
		posts:     make(map[int64]*Post),
		comments:  make(map[int64]*Comment),
		follows:   make(map[FollowEdge]struct{}),
	}
}

// --- User Functions ---

func (m *MemoryStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	if u.Created.IsZero() {
		u.Created = time.Now().UTC()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// --- Group Functions ---

func (m *MemoryStore) CreateGroup(_ context.Context, g *Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.groups {
		if existing.Slug == g.Slug {
			return ErrDuplicate
		}
	}
	g.ID = m.nextGroup
	m.nextGroup++
	cp := *g
	m.groups[g.ID] = &cp
	return nil
}

func (m *MemoryStore) GetGroup(_ context.Context, id int) (*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetGroupBySlug(_ context.Context, slug string) (*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.groups {
		if g.Slug == slug {
			cp := *g
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListGroups(_ context.Context) ([]Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var groups []Group
	for _, g := range m.groups {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Title < groups[j].Title })
	return groups, nil
}

// --- Post Functions ---

func (m *MemoryStore) CreatePost(_ context.Context, p *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextPost
	m.nextPost++
	if p.PubDate.IsZero() {
		p.PubDate = time.Now().UTC()
	}
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdatePost(_ context.Context, p *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.posts[p.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Text = p.Text
	existing.GroupID = p.GroupID
	existing.Image = p.Image
	return nil
}

func (m *MemoryStore) DeletePost(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	for cid, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *MemoryStore) GetPost(_ context.Context, username string, id int64) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	author, ok := m.users[p.AuthorID]
	if !ok || author.Username != username {
		return nil, ErrNotFound
	}
	return m.decoratePostLocked(p), nil
}

func (m *MemoryStore) ListPosts(_ context.Context, f PostFilter, limit, offset int) ([]Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := m.matchPostsLocked(f)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PubDate.Equal(matched[j].PubDate) {
			return matched[i].PubDate.After(matched[j].PubDate)
		}
		return matched[i].ID > matched[j].ID
	})
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit >= 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]Post, 0, len(matched))
	for _, p := range matched {
		out = append(out, *m.decoratePostLocked(p))
	}
	return out, nil
}

func (m *MemoryStore) CountPosts(_ context.Context, f PostFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matchPostsLocked(f)), nil
}

func (m *MemoryStore) matchPostsLocked(f PostFilter) []*Post {
	var matched []*Post
	for _, p := range m.posts {
		switch {
		case f.GroupID != nil:
			if p.GroupID == nil || *p.GroupID != *f.GroupID {
				continue
			}
		case f.AuthorID != "":
			if p.AuthorID != f.AuthorID {
				continue
			}
		case f.FollowedBy != "":
			if _, ok := m.follows[FollowEdge{UserID: f.FollowedBy, AuthorID: p.AuthorID}]; !ok {
				continue
			}
		}
		matched = append(matched, p)
	}
	return matched
}

func (m *MemoryStore) decoratePostLocked(p *Post) *Post {
	cp := *p
	if u, ok := m.users[p.AuthorID]; ok {
		cp.Author = u.Username
	}
	cp.GroupSlug, cp.GroupTitle = "", ""
	if p.GroupID != nil {
		if g, ok := m.groups[*p.GroupID]; ok {
			cp.GroupSlug = g.Slug
			cp.GroupTitle = g.Title
		}
	}
	return &cp
}

// --- Comment Functions ---

func (m *MemoryStore) CreateComment(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[c.PostID]; !ok {
		return ErrNotFound
	}
	c.ID = m.nextCmt
	m.nextCmt++
	if c.Created.IsZero() {
		c.Created = time.Now().UTC()
	}
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *MemoryStore) ListComments(_ context.Context, postID int64) ([]Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var comments []Comment
	for _, c := range m.comments {
		if c.PostID != postID {
			continue
		}
		cp := *c
		if u, ok := m.users[c.AuthorID]; ok {
			cp.Author = u.Username
		}
		comments = append(comments, cp)
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

// --- Follow Functions ---

func (m *MemoryStore) Follow(_ context.Context, userID, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.follows[FollowEdge{UserID: userID, AuthorID: authorID}] = struct{}{}
	return nil
}

func (m *MemoryStore) Unfollow(_ context.Context, userID, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.follows, FollowEdge{UserID: userID, AuthorID: authorID})
	return nil
}

func (m *MemoryStore) IsFollowing(_ context.Context, userID, authorID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.follows[FollowEdge{UserID: userID, AuthorID: authorID}]
	return ok, nil
}

// FollowCount reports the number of follow edges, used by tests to assert
// idempotency.
func (m *MemoryStore) FollowCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.follows)
}
