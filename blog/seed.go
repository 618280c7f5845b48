// blog/seed.go
package blog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type groupSeedFile struct {
	Groups []groupSeed `yaml:"groups"`
}

type groupSeed struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// LoadGroupSeeds reads the group definitions used to seed the store at
// startup. Groups have no public creation form, so this file is the
// administered source of truth.
func LoadGroupSeeds(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read groups file: %w", err)
	}
	var f groupSeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse groups file: %w", err)
	}
	groups := make([]Group, 0, len(f.Groups))
	for _, g := range f.Groups {
		if g.Slug == "" || g.Title == "" {
			return nil, fmt.Errorf("group %q: title and slug are required", g.Title)
		}
		groups = append(groups, Group{Title: g.Title, Slug: g.Slug, Description: g.Description})
	}
	return groups, nil
}

// SeedGroups creates any group that does not exist yet, keyed by slug.
// Already-seeded groups are left untouched, so the call is safe on every
// startup.
func SeedGroups(ctx context.Context, store Store, groups []Group) error {
	for _, g := range groups {
		_, err := store.GetGroupBySlug(ctx, g.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to look up group %q: %w", g.Slug, err)
		}
		if err := store.CreateGroup(ctx, &g); err != nil {
			return fmt.Errorf("failed to create group %q: %w", g.Slug, err)
		}
	}
	return nil
}
