package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apshelper.com/job-helper/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// Deterministic, strictly increasing clock.
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestEntriesNewestFirstAndTagFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.CreateEntry(ctx, "Led a cross-agency project", []string{"Achieves Results", "EL1"})
	require.NoError(t, err)
	second, err := s.CreateEntry(ctx, "Drafted a cover letter", []string{"cover letter", "APS6"})
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, "Untagged note", nil)
	require.NoError(t, err)

	all, err := s.ListEntries(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Untagged note", all[0].Content)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, first.ID, all[2].ID)
	assert.Equal(t, []string{}, all[0].Tags)

	tagged, err := s.ListEntries(ctx, "APS6")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, second.ID, tagged[0].ID)

	none, err := s.ListEntries(ctx, "nonexistent-tag")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListTagsSortedUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateEntry(ctx, "a", []string{"zeta", "alpha"})
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, "b", []string{"alpha", "mid"})
	require.NoError(t, err)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, tags)
}

func TestListTagsEmpty(t *testing.T) {
	tags, err := newTestStore(t).ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, tags)
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e, err := s.CreateEntry(ctx, "to delete", []string{"x"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEntry(ctx, e.ID))
	err = s.DeleteEntry(ctx, e.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.DeleteEntry(ctx, "nonexistent-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChatMessagesHistoryWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, content := range []string{"q1", "a1", "q2", "a2", "q3"} {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		require.NoError(t, s.CreateChatMessage(ctx, &model.ChatMessage{SessionID: "s1", Role: role, Content: content}))
	}
	require.NoError(t, s.CreateChatMessage(ctx, &model.ChatMessage{SessionID: "other", Role: model.RoleUser, Content: "elsewhere"}))

	last, err := s.GetLastNChatMessages(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, last, 3)
	assert.Equal(t, "q2", last[0].Content)
	assert.Equal(t, "a2", last[1].Content)
	assert.Equal(t, "q3", last[2].Content)
	assert.Equal(t, model.RoleAssistant, last[1].Role)

	all, err := s.GetChatMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "q1", all[0].Content)
}

func TestWorkExampleLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := model.WorkExampleInput{
		Title:        "Budget process redesign",
		ExampleText:  "Redesigned the quarterly budget process.",
		Role:         "Finance Officer",
		APSLevel:     "APS5",
		Capabilities: []string{"Achieves Results"},
		Behaviours:   []string{"Commits to action"},
		Tags:         []string{"finance"},
	}
	created, err := s.CreateWorkExample(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := s.GetWorkExample(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, []string{"finance"}, got.Tags)

	in.Title = "Budget process overhaul"
	in.Tags = nil
	updated, err := s.UpdateWorkExample(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Budget process overhaul", updated.Title)
	assert.Equal(t, []string{}, updated.Tags)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	list, err := s.ListWorkExamples(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Budget process overhaul", list[0].Title)

	require.NoError(t, s.DeleteWorkExample(ctx, created.ID))
	assert.ErrorIs(t, s.DeleteWorkExample(ctx, created.ID), ErrNotFound)

	_, err = s.UpdateWorkExample(ctx, created.ID, in)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetWorkExample(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilterOptionsMergesReferenceAndExamples(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateILSReference(ctx, &model.ILSReference{
		CapabilityName: "Achieves Results", APSLevel: "APS6", Behaviour: "Commits to action", Description: "d",
	}))
	_, err := s.CreateWorkExample(ctx, model.WorkExampleInput{
		Title: "t", ExampleText: "x", APSLevel: "APS4",
		Capabilities: []string{"Custom Capability", "Achieves Results"},
		Behaviours:   []string{"Mentors juniors"},
		Tags:         []string{"team", "delivery"},
	})
	require.NoError(t, err)

	opts, err := s.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Achieves Results", "Custom Capability"}, opts.Capabilities)
	assert.Equal(t, []string{"Commits to action", "Mentors juniors"}, opts.Behaviours)
	assert.Equal(t, []string{"delivery", "team"}, opts.Tags)
	assert.Equal(t, model.APSLevels, opts.APSLevels)
}

func TestAssessments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := &model.Assessment{WorkExampleID: "ex-1", ExampleText: "text", APSLevel: "APS6", Assessment: "Strong"}
	require.NoError(t, s.CreateAssessment(ctx, a))
	require.NoError(t, s.CreateAssessment(ctx, &model.Assessment{ExampleText: "adhoc", APSLevel: "EL1", Assessment: "Fair"}))

	all, err := s.ListAssessments(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "adhoc", all[0].ExampleText)
	assert.Equal(t, "", all[0].WorkExampleID)

	forExample, err := s.ListAssessments(ctx, "ex-1")
	require.NoError(t, err)
	require.Len(t, forExample, 1)
	assert.Equal(t, a.ID, forExample[0].ID)
}
