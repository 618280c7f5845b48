// blog/handlers.go
package blog

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxUploadBytes = 10 << 20

type Handlers struct {
	store    Store
	cache    *PageCache
	session  *scs.SessionManager
	tpl      *template.Template
	log      zerolog.Logger
	pageSize int
	mediaDir string
}

func NewHandlers(store Store, cache *PageCache, session *scs.SessionManager, tpl *template.Template, log zerolog.Logger, cfg Config) *Handlers {
	return &Handlers{
		store:    store,
		cache:    cache,
		session:  session,
		tpl:      tpl,
		log:      log,
		pageSize: cfg.PageSize,
		mediaDir: cfg.MediaDir,
	}
}

func LoadTemplates(glob string) (*template.Template, error) {
	return template.ParseGlob(glob)
}

// Router wires every view. Static segments win over the {username}
// wildcard, so /new/, /follow/, /group/ and /auth/ stay reachable.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger(h.log))
	r.Use(h.recoverPanic)
	r.Use(appendSlash)
	r.NotFound(h.notFound)

	r.Get("/", h.index)
	r.Get("/follow/", h.requireAuth(h.followIndex))
	r.Get("/new/", h.requireAuth(h.newPost))
	r.Post("/new/", h.requireAuth(h.newPost))
	r.Get("/group/{slug}/", h.groupPosts)

	r.Get("/auth/login/", h.login)
	r.Post("/auth/login/", h.login)
	r.Get("/auth/signup/", h.signup)
	r.Post("/auth/signup/", h.signup)
	r.Post("/auth/logout/", h.requireAuth(h.logout))

	r.Get("/{username}/", h.profile)
	r.Get("/{username}/follow/", h.requireAuth(h.profileFollow))
	r.Get("/{username}/unfollow/", h.requireAuth(h.profileUnfollow))
	r.Get("/{username}/{postID}/", h.postDetail)
	r.Get("/{username}/{postID}/edit/", h.requireAuth(h.editPost))
	r.Post("/{username}/{postID}/edit/", h.requireAuth(h.editPost))
	r.Post("/{username}/{postID}/comment/", h.requireAuth(h.addComment))

	fs := http.StripPrefix("/media/", http.FileServer(http.Dir(h.mediaDir)))
	r.Get("/media/*", fs.ServeHTTP)

	return r
}

// --- View data ---

type feedData struct {
	CurrentUser *User
	Posts       []Post
	Page        Page
	Group       *Group
	Author      *User
	Following   bool
}

type postData struct {
	CurrentUser *User
	Post        *Post
	Comments    []Comment
	Form        *CommentForm
}

type postFormData struct {
	CurrentUser *User
	Form        *PostForm
	Groups      []Group
	Post        *Post
	Editing     bool
}

type errorData struct {
	CurrentUser *User
	Path        string
}

// --- Rendering ---

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error().Err(err).Str("template", name).Msg("failed to execute template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusNotFound, "404.html", errorData{CurrentUser: h.currentUser(r), Path: r.URL.Path})
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusInternalServerError, "500.html", errorData{Path: r.URL.Path})
}

// --- Feeds ---

func pageNumber(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if n < 1 {
		n = 1
	}
	return n
}

// queryFeed counts, clamps the page and fetches one page of posts for the
// given filter.
func (h *Handlers) queryFeed(r *http.Request, f PostFilter) ([]Post, Page, error) {
	total, err := h.store.CountPosts(r.Context(), f)
	if err != nil {
		return nil, Page{}, err
	}
	page := NewPage(total, pageNumber(r), h.pageSize)
	posts, err := h.store.ListPosts(r.Context(), f, page.PerPage, page.Offset())
	if err != nil {
		return nil, Page{}, err
	}
	return posts, page, nil
}

// index is the landing feed: every post, newest first. Responses are
// cached verbatim for the configured TTL, so a post created or deleted
// within the window does not show up until the cache turns over.
func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	key := r.URL.RequestURI()
	if body, ok := h.cache.Get(key); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
		return
	}

	posts, page, err := h.queryFeed(r, PostFilter{})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list posts")
		h.serverError(w, r)
		return
	}

	var buf bytes.Buffer
	data := feedData{CurrentUser: h.currentUser(r), Posts: posts, Page: page}
	if err := h.tpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		h.log.Error().Err(err).Msg("failed to execute template")
		h.serverError(w, r)
		return
	}
	h.cache.Set(key, buf.Bytes())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (h *Handlers) groupPosts(w http.ResponseWriter, r *http.Request) {
	group, err := h.store.GetGroupBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to get group")
		h.serverError(w, r)
		return
	}

	posts, page, err := h.queryFeed(r, PostFilter{GroupID: &group.ID})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list group posts")
		h.serverError(w, r)
		return
	}
	h.render(w, http.StatusOK, "group.html", feedData{
		CurrentUser: h.currentUser(r),
		Posts:       posts,
		Page:        page,
		Group:       group,
	})
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	author, err := h.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to get author")
		h.serverError(w, r)
		return
	}
	author.Sanitize()

	posts, page, err := h.queryFeed(r, PostFilter{AuthorID: author.ID})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list author posts")
		h.serverError(w, r)
		return
	}

	// Anonymous viewers and the author's own profile both show as not
	// following.
	following := false
	if uid := h.currentUserID(r); uid != "" && uid != author.ID {
		following, err = h.store.IsFollowing(r.Context(), uid, author.ID)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to check follow edge")
			h.serverError(w, r)
			return
		}
	}

	h.render(w, http.StatusOK, "profile.html", feedData{
		CurrentUser: h.currentUser(r),
		Posts:       posts,
		Page:        page,
		Author:      author,
		Following:   following,
	})
}

func (h *Handlers) followIndex(w http.ResponseWriter, r *http.Request) {
	posts, page, err := h.queryFeed(r, PostFilter{FollowedBy: h.currentUserID(r)})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list followed posts")
		h.serverError(w, r)
		return
	}
	h.render(w, http.StatusOK, "follow.html", feedData{
		CurrentUser: h.currentUser(r),
		Posts:       posts,
		Page:        page,
	})
}

// --- Post detail and comments ---

// resolvePost looks a post up by the (username, post id) pair from the
// URL. A nil post means the response has already been written.
func (h *Handlers) resolvePost(w http.ResponseWriter, r *http.Request) *Post {
	id, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		h.notFound(w, r)
		return nil
	}
	post, err := h.store.GetPost(r.Context(), chi.URLParam(r, "username"), id)
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return nil
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to get post")
		h.serverError(w, r)
		return nil
	}
	return post
}

func (h *Handlers) postDetail(w http.ResponseWriter, r *http.Request) {
	post := h.resolvePost(w, r)
	if post == nil {
		return
	}
	comments, err := h.store.ListComments(r.Context(), post.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list comments")
		h.serverError(w, r)
		return
	}
	h.render(w, http.StatusOK, "post.html", postData{
		CurrentUser: h.currentUser(r),
		Post:        post,
		Comments:    comments,
		Form:        &CommentForm{Errors: make(FieldErrors)},
	})
}

func (h *Handlers) addComment(w http.ResponseWriter, r *http.Request) {
	post := h.resolvePost(w, r)
	if post == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	form := ParseCommentForm(r)
	if !form.Valid() {
		comments, err := h.store.ListComments(r.Context(), post.ID)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to list comments")
			h.serverError(w, r)
			return
		}
		h.render(w, http.StatusOK, "post.html", postData{
			CurrentUser: h.currentUser(r),
			Post:        post,
			Comments:    comments,
			Form:        form,
		})
		return
	}

	comment := &Comment{
		PostID:   post.ID,
		AuthorID: h.currentUserID(r),
		Text:     form.Text,
	}
	if err := h.store.CreateComment(r.Context(), comment); err != nil {
		h.log.Error().Err(err).Msg("failed to create comment")
		h.serverError(w, r)
		return
	}
	http.Redirect(w, r, postPath(post), http.StatusSeeOther)
}

func postPath(p *Post) string {
	return "/" + p.Author + "/" + strconv.FormatInt(p.ID, 10) + "/"
}

// --- Post creation and editing ---

func (h *Handlers) newPost(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list groups")
		h.serverError(w, r)
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, http.StatusOK, "new_post.html", postFormData{
			CurrentUser: h.currentUser(r),
			Form:        &PostForm{Errors: make(FieldErrors)},
			Groups:      groups,
		})
		return
	}

	form, ok := h.parseSubmittedPost(w, r)
	if !ok {
		return
	}
	if !form.Valid() {
		h.render(w, http.StatusOK, "new_post.html", postFormData{
			CurrentUser: h.currentUser(r),
			Form:        form,
			Groups:      groups,
		})
		return
	}

	post := &Post{
		Text:     form.Text,
		AuthorID: h.currentUserID(r),
		GroupID:  form.GroupID,
		Image:    form.Image,
	}
	if err := h.store.CreatePost(r.Context(), post); err != nil {
		h.log.Error().Err(err).Msg("failed to create post")
		h.serverError(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) editPost(w http.ResponseWriter, r *http.Request) {
	post := h.resolvePost(w, r)
	if post == nil {
		return
	}
	// Not the author: silently bounce to the detail view, no error.
	if post.AuthorID != h.currentUserID(r) {
		http.Redirect(w, r, postPath(post), http.StatusSeeOther)
		return
	}

	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list groups")
		h.serverError(w, r)
		return
	}

	if r.Method == http.MethodGet {
		form := &PostForm{Text: post.Text, GroupID: post.GroupID, Image: post.Image, Errors: make(FieldErrors)}
		h.render(w, http.StatusOK, "new_post.html", postFormData{
			CurrentUser: h.currentUser(r),
			Form:        form,
			Groups:      groups,
			Post:        post,
			Editing:     true,
		})
		return
	}

	form, ok := h.parseSubmittedPost(w, r)
	if !ok {
		return
	}
	if !form.Valid() {
		h.render(w, http.StatusOK, "new_post.html", postFormData{
			CurrentUser: h.currentUser(r),
			Form:        form,
			Groups:      groups,
			Post:        post,
			Editing:     true,
		})
		return
	}

	post.Text = form.Text
	post.GroupID = form.GroupID
	if form.Image != "" {
		post.Image = form.Image
	}
	if err := h.store.UpdatePost(r.Context(), post); err != nil {
		h.log.Error().Err(err).Msg("failed to update post")
		h.serverError(w, r)
		return
	}
	http.Redirect(w, r, postPath(post), http.StatusSeeOther)
}

// parseSubmittedPost parses the post form body, validates the group
// reference and stores the image upload if one was sent. A false return
// means the response has already been written.
func (h *Handlers) parseSubmittedPost(w http.ResponseWriter, r *http.Request) (*PostForm, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return nil, false
	}
	form := ParsePostForm(r)
	if form.GroupID != nil {
		if _, err := h.store.GetGroup(r.Context(), *form.GroupID); err != nil {
			if errors.Is(err, ErrNotFound) {
				form.Errors["group"] = "select a valid group"
			} else {
				h.log.Error().Err(err).Msg("failed to get group")
				h.serverError(w, r)
				return nil, false
			}
		}
	}
	image, err := h.saveUpload(r)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to store upload")
		h.serverError(w, r)
		return nil, false
	}
	form.Image = image
	return form, true
}

// saveUpload writes an optional image upload into the media directory
// under a fresh uuid name and returns its relative path, or "" when the
// form carried no file.
func (h *Handlers) saveUpload(r *http.Request) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	dir := filepath.Join(h.mediaDir, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.New().String() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return "posts/" + name, nil
}

// --- Follow / Unfollow ---

func (h *Handlers) profileFollow(w http.ResponseWriter, r *http.Request) {
	h.setFollow(w, r, true)
}

func (h *Handlers) profileUnfollow(w http.ResponseWriter, r *http.Request) {
	h.setFollow(w, r, false)
}

func (h *Handlers) setFollow(w http.ResponseWriter, r *http.Request, follow bool) {
	author, err := h.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to get author")
		h.serverError(w, r)
		return
	}

	// A user cannot follow themselves; send them back to their own
	// profile rather than the index.
	uid := h.currentUserID(r)
	if author.ID == uid {
		http.Redirect(w, r, "/"+author.Username+"/", http.StatusSeeOther)
		return
	}

	if follow {
		err = h.store.Follow(r.Context(), uid, author.ID)
	} else {
		err = h.store.Unfollow(r.Context(), uid, author.ID)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to update follow edge")
		h.serverError(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
