package routing

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"curator/internal/config"
)

// Route is the classification outcome: a category name and its resolved
// destination directory under the organize root.
type Route struct {
	Category string
	Dir      string
}

type tagRule struct {
	match    string
	category string
}

// Table maps filenames to categories. Immutable once built.
type Table struct {
	root            string
	tagRules        []tagRule
	extensions      map[string]string
	defaultCategory string
}

// NewTable builds a routing table from configuration. Config validation has
// already rejected contradictory routes, so construction cannot fail.
func NewTable(cfg *config.Config) *Table {
	extensions := make(map[string]string)
	for category, exts := range cfg.Routes {
		for _, ext := range exts {
			extensions[ext] = category
		}
	}

	rules := make([]tagRule, 0, len(cfg.TagRules))
	for _, rule := range cfg.TagRules {
		rules = append(rules, tagRule{
			match:    normalize(rule.Match),
			category: rule.Category,
		})
	}

	return &Table{
		root:            cfg.Paths.OrganizeRoot,
		tagRules:        rules,
		extensions:      extensions,
		defaultCategory: config.DefaultCategory,
	}
}

// Classify returns the category and destination directory for a filename.
// Tag rules win over extension routes; unmatched files land in the default
// category. Pure function of the filename; no filesystem access.
func (t *Table) Classify(filename string) Route {
	base := filepath.Base(filename)
	normalized := normalize(base)

	for _, rule := range t.tagRules {
		if strings.Contains(normalized, rule.match) {
			return t.route(rule.category)
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	if ext != "" {
		if category, ok := t.extensions[ext]; ok {
			return t.route(category)
		}
	}

	return t.route(t.defaultCategory)
}

// EnsureDir creates the route's destination directory. Creation is
// idempotent; an existing directory is not an error.
func (t *Table) EnsureDir(route Route) error {
	if err := os.MkdirAll(route.Dir, 0o755); err != nil {
		return fmt.Errorf("create category directory %q: %w", route.Dir, err)
	}
	return nil
}

// Categories returns all configured category names, sorted, including the
// default category.
func (t *Table) Categories() []string {
	seen := map[string]struct{}{t.defaultCategory: {}}
	for _, category := range t.extensions {
		seen[category] = struct{}{}
	}
	for _, rule := range t.tagRules {
		seen[rule.category] = struct{}{}
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

func (t *Table) route(category string) Route {
	return Route{
		Category: category,
		Dir:      filepath.Join(t.root, category),
	}
}

func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
