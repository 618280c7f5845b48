package blog

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postFormRequest(t *testing.T, values url.Values) *PostForm {
	t.Helper()
	req := httptest.NewRequest("POST", "/new/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, req.ParseForm())
	return ParsePostForm(req)
}

func TestPostFormRequiresText(t *testing.T) {
	form := postFormRequest(t, url.Values{"text": {"   "}})
	assert.False(t, form.Valid())
	assert.Equal(t, "text is required", form.Errors.Get("text"))
}

func TestPostFormParsesOptionalGroup(t *testing.T) {
	form := postFormRequest(t, url.Values{"text": {"hello"}, "group": {"3"}})
	require.True(t, form.Valid())
	require.NotNil(t, form.GroupID)
	assert.Equal(t, 3, *form.GroupID)
	assert.Equal(t, 3, form.SelectedGroup())
}

func TestPostFormRejectsMalformedGroup(t *testing.T) {
	form := postFormRequest(t, url.Values{"text": {"hello"}, "group": {"nope"}})
	assert.False(t, form.Valid())
	assert.True(t, form.Errors.Has("group"))
}

func TestPostFormWithoutGroup(t *testing.T) {
	form := postFormRequest(t, url.Values{"text": {"hello"}})
	require.True(t, form.Valid())
	assert.Nil(t, form.GroupID)
	assert.Equal(t, 0, form.SelectedGroup())
}

func TestSignupFormValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		field    string
	}{
		{"missing username", "", "a@b.c", "longenough", "username"},
		{"unsafe username", "bad name!", "a@b.c", "longenough", "username"},
		{"bad email", "alice", "nope", "longenough", "email"},
		{"short password", "alice", "a@b.c", "short", "password"},
		{"reserved username", "new", "a@b.c", "longenough", "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := &SignupForm{
				Username: tt.username,
				Email:    tt.email,
				Password: tt.password,
				Errors:   make(FieldErrors),
			}
			assert.False(t, form.Valid())
			assert.True(t, form.Errors.Has(tt.field), "expected error on %s", tt.field)
		})
	}

	ok := &SignupForm{Username: "alice_1", Email: "a@b.c", Password: "longenough", Errors: make(FieldErrors)}
	assert.True(t, ok.Valid())
}

func TestSafeNextRejectsOffsiteTargets(t *testing.T) {
	assert.Equal(t, "/new/", safeNext("/new/"))
	assert.Equal(t, "", safeNext("https://evil.example/"))
	assert.Equal(t, "", safeNext("//evil.example/"))
	assert.Equal(t, "", safeNext(""))
}
