// blog/forms.go
package blog

import (
	"net/http"
	"strconv"
	"strings"
)

// FieldErrors maps a form field name to its validation message. An empty
// map means the form is valid.
type FieldErrors map[string]string

func (e FieldErrors) Has(field string) bool { return e[field] != "" }

func (e FieldErrors) Get(field string) string { return e[field] }

// PostForm carries the submitted fields of the post creation/edit form.
// Image holds the stored relative path, not the raw upload.
type PostForm struct {
	Text    string
	GroupID *int
	Image   string
	Errors  FieldErrors
}

// ParsePostForm reads text and group from an already-parsed request body.
// The image upload is handled separately by the caller since it needs the
// media directory.
func ParsePostForm(r *http.Request) *PostForm {
	f := &PostForm{
		Text:   strings.TrimSpace(r.PostFormValue("text")),
		Errors: make(FieldErrors),
	}
	if raw := r.PostFormValue("group"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			f.Errors["group"] = "select a valid group"
		} else {
			f.GroupID = &id
		}
	}
	return f
}

// SelectedGroup is the chosen group id, or 0 for none. Used by the form
// template, where a nil pointer cannot be compared to an int.
func (f *PostForm) SelectedGroup() int {
	if f.GroupID != nil {
		return *f.GroupID
	}
	return 0
}

func (f *PostForm) Valid() bool {
	if f.Text == "" {
		f.Errors["text"] = "text is required"
	}
	return len(f.Errors) == 0
}

type CommentForm struct {
	Text   string
	Errors FieldErrors
}

func ParseCommentForm(r *http.Request) *CommentForm {
	return &CommentForm{
		Text:   strings.TrimSpace(r.PostFormValue("text")),
		Errors: make(FieldErrors),
	}
}

func (f *CommentForm) Valid() bool {
	if f.Text == "" {
		f.Errors["text"] = "text is required"
	}
	return len(f.Errors) == 0
}

type SignupForm struct {
	Username string
	Email    string
	Password string
	Errors   FieldErrors
}

func ParseSignupForm(r *http.Request) *SignupForm {
	return &SignupForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Errors:   make(FieldErrors),
	}
}

func (f *SignupForm) Valid() bool {
	if f.Username == "" {
		f.Errors["username"] = "username is required"
	} else if !validUsername(f.Username) {
		f.Errors["username"] = "use letters, digits, - and _ only"
	} else if _, taken := reservedUsernames[f.Username]; taken {
		f.Errors["username"] = "this username is reserved"
	}
	if f.Email == "" || !strings.Contains(f.Email, "@") {
		f.Errors["email"] = "a valid email is required"
	}
	if len(f.Password) < 8 {
		f.Errors["password"] = "password must be at least 8 characters"
	}
	return len(f.Errors) == 0
}

// reservedUsernames are path segments already claimed by the routing
// table. A profile at /new/ would be unreachable.
var reservedUsernames = map[string]struct{}{
	"new":    {},
	"follow": {},
	"group":  {},
	"auth":   {},
	"media":  {},
}

// validUsername keeps usernames URL-safe; they are path segments in every
// profile route.
func validUsername(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

type LoginForm struct {
	Username string
	Password string
	Errors   FieldErrors
}

func ParseLoginForm(r *http.Request) *LoginForm {
	return &LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Errors:   make(FieldErrors),
	}
}

func (f *LoginForm) Valid() bool {
	if f.Username == "" {
		f.Errors["username"] = "username is required"
	}
	if f.Password == "" {
		f.Errors["password"] = "password is required"
	}
	return len(f.Errors) == 0
}
