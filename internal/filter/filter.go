// Package filter narrows the fetched entry and work-example lists to what is
// visible for the current search text and selections. Everything here is a
// pure function of its arguments.
package filter

import (
	"slices"
	"strings"

	"apshelper.com/job-helper/internal/model"
)

// Predicate reports whether an item stays visible. A nil Predicate is
// inactive.
type Predicate[T any] func(T) bool

// Apply returns, in order, the items satisfying every active predicate. With
// no active predicate it returns a copy of items.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}

	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, p := range active {
			if !p(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

// ContainsFold reports whether needle is a case-insensitive substring of s.
func ContainsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}

// Text matches q against any of the fields fn extracts. Empty q is inactive.
func Text[T any](q string, fn func(T) []string) Predicate[T] {
	if q == "" {
		return nil
	}
	return func(it T) bool {
		for _, f := range fn(it) {
			if ContainsFold(f, q) {
				return true
			}
		}
		return false
	}
}

// Member keeps items whose list (from fn) contains v exactly. Empty v is
// inactive.
func Member[T any](v string, fn func(T) []string) Predicate[T] {
	if v == "" {
		return nil
	}
	return func(it T) bool { return slices.Contains(fn(it), v) }
}

// Equal keeps items whose field (from fn) is exactly v. Empty v is inactive.
func Equal[T any](v string, fn func(T) string) Predicate[T] {
	if v == "" {
		return nil
	}
	return func(it T) bool { return fn(it) == v }
}

// EntryFilter is the entry list's search text and selected tag; empty fields match everything.
type EntryFilter struct {
	Query string
	Tag   string
}

// Entries keeps entries whose content contains Query and whose tags include Tag.
func Entries(entries []model.Entry, f EntryFilter) []model.Entry {
	return Apply(entries,
		Text(f.Query, func(e model.Entry) []string { return []string{e.Content} }),
		Member(f.Tag, func(e model.Entry) []string { return e.Tags }),
	)
}

// WorkExampleFilter is the work-example list's search text and selections; empty fields match everything.
type WorkExampleFilter struct {
	Query      string
	Level      string
	Capability string
	Tag        string
}

// WorkExamples matches Query against title, example text and role.
func WorkExamples(examples []model.WorkExample, f WorkExampleFilter) []model.WorkExample {
	return Apply(examples,
		Text(f.Query, func(ex model.WorkExample) []string { return []string{ex.Title, ex.ExampleText, ex.Role} }),
		Equal(f.Level, func(ex model.WorkExample) string { return ex.APSLevel }),
		Member(f.Capability, func(ex model.WorkExample) []string { return ex.Capabilities }),
		Member(f.Tag, func(ex model.WorkExample) []string { return ex.Tags }),
	)
}

// ToggleTag returns the tag selection after the user picks selected while
// active is in force: picking the active tag clears it, any other replaces it.
func ToggleTag(active, selected string) string {
	if selected == active {
		return ""
	}
	return selected
}
