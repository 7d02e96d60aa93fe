package domain

import "sort"

const (
	InfrastructureAuthority AuthorityType = "Department for Infrastructure"
	CouncilAuthority        AuthorityType = "Council"
)

// CategoryBucket groups report categories under one authority type.
type CategoryBucket struct {
	AuthorityType AuthorityType `json:"authority_type" mapstructure:"authority_type"`
	Categories    []string      `json:"categories" mapstructure:"categories"`
}

// CategoryTable maps a report category to the authority type that handles it.
// Matching is exact and case-sensitive.
type CategoryTable struct {
	byCategory map[string]AuthorityType
	buckets    []CategoryBucket
}

// NewCategoryTable builds a table from buckets. A category listed in more
// than one bucket keeps the first assignment.
func NewCategoryTable(buckets []CategoryBucket) *CategoryTable {
	t := &CategoryTable{byCategory: make(map[string]AuthorityType)}
	for _, b := range buckets {
		kept := CategoryBucket{AuthorityType: b.AuthorityType}
		for _, c := range b.Categories {
			if _, dup := t.byCategory[c]; dup {
				continue
			}
			t.byCategory[c] = b.AuthorityType
			kept.Categories = append(kept.Categories, c)
		}
		t.buckets = append(t.buckets, kept)
	}
	return t
}

// DefaultCategoryBuckets returns the built-in classification.
func DefaultCategoryBuckets() []CategoryBucket {
	return []CategoryBucket{
		{
			AuthorityType: InfrastructureAuthority,
			Categories: []string{
				"Potholes",
				"Street lighting fault",
				"Obstructions",
				"Spillages",
				"Ironworks",
				"Traffic lights",
				"Crash barrier and guard-rail",
				"Signs or road markings",
			},
		},
		{
			AuthorityType: CouncilAuthority,
			Categories: []string{
				"Street cleaning issue",
				"Missed bin collection",
				"Abandoned vehicle",
				"Dangerous structure or vacant building",
				"Pavement issue",
			},
		},
	}
}

// Lookup returns the authority type for category.
func (t *CategoryTable) Lookup(category string) (AuthorityType, bool) {
	at, ok := t.byCategory[category]
	return at, ok
}

// Buckets returns the table contents in configuration order.
func (t *CategoryTable) Buckets() []CategoryBucket {
	out := make([]CategoryBucket, len(t.buckets))
	copy(out, t.buckets)
	return out
}

// Categories returns every known category, sorted.
func (t *CategoryTable) Categories() []string {
	out := make([]string, 0, len(t.byCategory))
	for c := range t.byCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
