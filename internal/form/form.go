// Package form binds the work-example editor's text fields to a
// model.WorkExampleInput.
package form

import (
	"strings"

	"apshelper.com/job-helper/internal/model"
)

// ParseList splits comma-separated text into trimmed, non-empty items in
// their original order. Duplicates are kept.
func ParseList(text string) []string {
	items := []string{}
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// JoinList renders items for a comma-separated text field.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}

// Mode says what submitting the form does.
type Mode interface {
	isMode()
}

// Create submits a new work example.
type Create struct{}

// Editing submits an update to the work example ID.
type Editing struct {
	ID string
}

func (Create) isMode()  {}
func (Editing) isMode() {}

// WorkExampleForm holds the editor's fields as the user typed them. List
// fields stay raw text until Input parses them.
type WorkExampleForm struct {
	Title        string
	ExampleText  string
	Role         string
	APSLevel     string
	Capabilities string
	Behaviours   string
	Tags         string

	Mode Mode
	Open bool
}

// New returns a closed form with default values.
func New() *WorkExampleForm {
	f := &WorkExampleForm{}
	f.Reset()
	return f
}

// Reset restores default values, returns to Create mode and closes the form.
func (f *WorkExampleForm) Reset() {
	*f = WorkExampleForm{
		APSLevel: model.DefaultAPSLevel,
		Mode:     Create{},
	}
}

// OpenNew resets the form and opens it for a new work example.
func (f *WorkExampleForm) OpenNew() {
	f.Reset()
	f.Open = true
}

// Edit loads ex into the fields and opens the form in Editing mode.
func (f *WorkExampleForm) Edit(ex model.WorkExample) {
	*f = WorkExampleForm{
		Title:        ex.Title,
		ExampleText:  ex.ExampleText,
		Role:         ex.Role,
		APSLevel:     ex.APSLevel,
		Capabilities: JoinList(ex.Capabilities),
		Behaviours:   JoinList(ex.Behaviours),
		Tags:         JoinList(ex.Tags),
		Mode:         Editing{ID: ex.ID},
		Open:         true,
	}
	if f.APSLevel == "" {
		f.APSLevel = model.DefaultAPSLevel
	}
}

// Input converts the fields into the payload sent on submit.
func (f *WorkExampleForm) Input() model.WorkExampleInput {
	return model.WorkExampleInput{
		Title:        strings.TrimSpace(f.Title),
		ExampleText:  strings.TrimSpace(f.ExampleText),
		Role:         strings.TrimSpace(f.Role),
		APSLevel:     f.APSLevel,
		Capabilities: ParseList(f.Capabilities),
		Behaviours:   ParseList(f.Behaviours),
		Tags:         ParseList(f.Tags),
	}
}

// EditingID returns the id being edited, or "" in Create mode.
func (f *WorkExampleForm) EditingID() string {
	if e, ok := f.Mode.(Editing); ok {
		return e.ID
	}
	return ""
}
