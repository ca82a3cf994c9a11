package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"apshelper.com/job-helper/internal/model"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{" a, b ,,c ", []string{"a", "b", "c"}},
		{"", []string{}},
		{" , ,", []string{}},
		{"b, a, b", []string{"b", "a", "b"}},
		{"Achieves Results", []string{"Achieves Results"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseList(tt.in), "ParseList(%q)", tt.in)
	}
}

func TestJoinListRoundTrip(t *testing.T) {
	items := []string{"Achieves Results", "Shapes Strategic Thinking"}
	assert.Equal(t, "Achieves Results, Shapes Strategic Thinking", JoinList(items))
	assert.Equal(t, items, ParseList(JoinList(items)))
	assert.Equal(t, "", JoinList(nil))
}

func TestNewFormDefaults(t *testing.T) {
	f := New()
	assert.Equal(t, model.DefaultAPSLevel, f.APSLevel)
	assert.Equal(t, Create{}, f.Mode)
	assert.False(t, f.Open)
	assert.Equal(t, "", f.EditingID())
}

func TestEditThenReset(t *testing.T) {
	f := New()
	f.Edit(model.WorkExample{
		ID:           "w1",
		Title:        "Budget reform",
		ExampleText:  "Cut costs",
		Role:         "Finance Officer",
		APSLevel:     "EL1",
		Capabilities: []string{"Achieves Results"},
		Behaviours:   []string{"Commits to action", "Delivers"},
		Tags:         []string{},
	})
	assert.True(t, f.Open)
	assert.Equal(t, Editing{ID: "w1"}, f.Mode)
	assert.Equal(t, "w1", f.EditingID())
	assert.Equal(t, "Commits to action, Delivers", f.Behaviours)

	f.Tags = " finance, ,reform "
	in := f.Input()
	assert.Equal(t, model.WorkExampleInput{
		Title:        "Budget reform",
		ExampleText:  "Cut costs",
		Role:         "Finance Officer",
		APSLevel:     "EL1",
		Capabilities: []string{"Achieves Results"},
		Behaviours:   []string{"Commits to action", "Delivers"},
		Tags:         []string{"finance", "reform"},
	}, in)

	f.Reset()
	assert.Equal(t, New(), f)
}

func TestOpenNewClearsSelection(t *testing.T) {
	f := New()
	f.Edit(model.WorkExample{ID: "w1", Title: "t"})
	assert.Equal(t, model.DefaultAPSLevel, f.APSLevel, "missing level falls back to the default")

	f.OpenNew()
	assert.True(t, f.Open)
	assert.Equal(t, Create{}, f.Mode)
	assert.Equal(t, "", f.Title)
}
