package blog

import (
	"testing"
)

func TestPasswordMatches(t *testing.T) {
	u := NewUser("alice", "alice@example.com")
	if err := u.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("set password: %v", err)
	}

	ok, err := u.PasswordMatches("correct horse battery")
	if err != nil {
		t.Fatalf("compare password: %v", err)
	}
	if !ok {
		t.Fatal("expected the right password to match")
	}

	ok, err = u.PasswordMatches("wrong password")
	if err != nil {
		t.Fatalf("compare wrong password: %v", err)
	}
	if ok {
		t.Fatal("expected the wrong password not to match")
	}
}

func TestSanitizeDropsHash(t *testing.T) {
	u := NewUser("bob", "bob@example.com")
	if err := u.SetPassword("hunter2hunter2"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	u.Sanitize()
	if u.Hash != nil {
		t.Fatal("expected hash to be cleared")
	}
}

func TestNewUserAssignsDistinctIDs(t *testing.T) {
	a := NewUser("a", "a@example.com")
	b := NewUser("b", "b@example.com")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}
