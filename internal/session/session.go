// Package session holds the client's view state: the chat transcript, the
// fetched entry and work-example lists, the filter selections, the
// work-example form and the in-flight flags. State changes only through the
// actions below, each of which calls the backend and applies its response.
package session

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"apshelper.com/job-helper/internal/filter"
	"apshelper.com/job-helper/internal/form"
	"apshelper.com/job-helper/internal/gateway"
	"apshelper.com/job-helper/internal/model"
)

var (
	// ErrBusy is returned when an action of the same kind is still in flight.
	ErrBusy = errors.New("request already in progress")

	ErrUnknownExample = errors.New("work example not loaded")
	ErrNoAssessment   = errors.New("no assessment to save")
)

// ReportedError wraps a failure the Notifier has already shown.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r *ReportedError
	return errors.As(err, &r)
}

// In-flight flag names.
const (
	KindLoad   = "load"
	KindChat   = "chat"
	KindStore  = "store"
	KindSubmit = "submit"
	KindAssess = "assess"
	KindSave   = "save"
)

func deleteEntryKind(id string) string   { return "delete-entry:" + id }
func deleteExampleKind(id string) string { return "delete-example:" + id }

// Backend is the remote API; *gateway.Client implements it.
type Backend interface {
	ListEntries(ctx context.Context, tag string) ([]model.Entry, error)
	ListTags(ctx context.Context) ([]string, error)
	StoreEntry(ctx context.Context, content string) (*model.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	Chat(ctx context.Context, sessionID, message string) (*gateway.ChatReply, error)
	ListWorkExamples(ctx context.Context) ([]model.WorkExample, error)
	CreateWorkExample(ctx context.Context, in model.WorkExampleInput) (*model.WorkExample, error)
	UpdateWorkExample(ctx context.Context, id string, in model.WorkExampleInput) (*model.WorkExample, error)
	DeleteWorkExample(ctx context.Context, id string) error
	Filters(ctx context.Context) (*model.FilterOptions, error)
	Assess(ctx context.Context, exampleText, level string) (string, error)
	SaveAssessment(ctx context.Context, a model.Assessment) (*model.Assessment, error)
}

// Notifier shows short-lived messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type Session struct {
	backend  Backend
	notifier Notifier
	logger   *zap.Logger

	mu         sync.Mutex
	id         string
	messages   []model.ChatMessage
	entries    []model.Entry
	tags       []string
	examples   []model.WorkExample
	options    model.FilterOptions
	search     string
	activeTag  string
	exFilter   filter.WorkExampleFilter
	form       *form.WorkExampleForm
	assessment *model.Assessment
	busy       map[string]bool
}

// New starts a session with a fresh id.
func New(backend Backend, notifier Notifier, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		id:       uuid.NewString(),
		form:     form.New(),
		busy:     map[string]bool{},
	}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// begin marks kind as in flight; the returned func clears it.
func (s *Session) begin(kind string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[kind] {
		return nil, ErrBusy
	}
	s.busy[kind] = true
	return func() {
		s.mu.Lock()
		delete(s.busy, kind)
		s.mu.Unlock()
	}, nil
}

// Busy reports whether an action of kind is in flight.
func (s *Session) Busy(kind string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[kind]
}

// fail logs err and tells the user, preferring the server's own message.
func (s *Session) fail(action string, err error, fallback string) error {
	s.logger.Error(action+" failed", zap.Error(err))
	s.notifier.Error(gateway.DetailOr(err, fallback))
	return &ReportedError{Err: err}
}

// Load fetches entries, tags, work examples and the filter vocabulary
// concurrently. Lists that arrive are applied even if another fetch fails.
func (s *Session) Load(ctx context.Context) error {
	done, err := s.begin(KindLoad)
	if err != nil {
		return err
	}
	defer done()

	// A plain group: one failed fetch must not cancel the others.
	var g errgroup.Group
	g.Go(func() error { return s.refreshEntries(ctx) })
	g.Go(func() error { return s.refreshTags(ctx) })
	g.Go(func() error { return s.refreshExamples(ctx) })
	g.Go(func() error { return s.refreshOptions(ctx) })
	if err := g.Wait(); err != nil {
		return s.fail("load", err, "Failed to load data")
	}
	return nil
}

func (s *Session) refreshEntries(ctx context.Context) error {
	// The tag filter is applied locally, so always fetch the full list.
	entries, err := s.backend.ListEntries(ctx, "")
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

func (s *Session) refreshTags(ctx context.Context) error {
	tags, err := s.backend.ListTags(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tags = tags
	s.mu.Unlock()
	return nil
}

func (s *Session) refreshExamples(ctx context.Context) error {
	examples, err := s.backend.ListWorkExamples(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.examples = examples
	s.mu.Unlock()
	return nil
}

func (s *Session) refreshOptions(ctx context.Context) error {
	opts, err := s.backend.Filters(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.options = *opts
	s.mu.Unlock()
	return nil
}

// Chat

// SendChat appends text to the transcript and then the assistant's reply.
// If the request fails the user's message stays and nothing is appended.
func (s *Session) SendChat(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	done, err := s.begin(KindChat)
	if err != nil {
		return "", err
	}
	defer done()

	s.mu.Lock()
	s.messages = append(s.messages, model.ChatMessage{SessionID: s.id, Role: model.RoleUser, Content: text})
	id := s.id
	s.mu.Unlock()

	reply, err := s.backend.Chat(ctx, id, text)
	if err != nil {
		return "", s.fail("chat", err, "Failed to get response")
	}

	s.mu.Lock()
	s.messages = append(s.messages, model.ChatMessage{SessionID: id, Role: model.RoleAssistant, Content: reply.Response})
	s.mu.Unlock()
	return reply.Response, nil
}

func (s *Session) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Entries

// StoreEntry saves text as a new entry, then refetches entries and tags.
func (s *Session) StoreEntry(ctx context.Context, text string) (*model.Entry, error) {
	done, err := s.begin(KindStore)
	if err != nil {
		return nil, err
	}
	defer done()

	entry, err := s.backend.StoreEntry(ctx, text)
	if err != nil {
		return nil, s.fail("store entry", err, "Failed to store entry")
	}
	s.notifier.Success("Entry stored and tagged")

	if err := s.refreshEntries(ctx); err != nil {
		s.fail("refresh entries", err, "Failed to load entries")
	}
	if err := s.refreshTags(ctx); err != nil {
		s.fail("refresh tags", err, "Failed to load tags")
	}
	return entry, nil
}

// DeleteEntry deletes id, removes exactly that entry locally and refetches
// the tags.
func (s *Session) DeleteEntry(ctx context.Context, id string) error {
	done, err := s.begin(deleteEntryKind(id))
	if err != nil {
		return err
	}
	defer done()

	if err := s.backend.DeleteEntry(ctx, id); err != nil {
		return s.fail("delete entry", err, "Failed to delete entry")
	}

	s.mu.Lock()
	s.entries = slices.DeleteFunc(slices.Clone(s.entries), func(e model.Entry) bool { return e.ID == id })
	s.mu.Unlock()
	s.notifier.Success("Entry deleted")

	if err := s.refreshTags(ctx); err != nil {
		s.fail("refresh tags", err, "Failed to load tags")
	}
	return nil
}

// SelectTag toggles tag as the entry filter.
func (s *Session) SelectTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTag = filter.ToggleTag(s.activeTag, tag)
}

func (s *Session) ActiveTag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTag
}

// SetSearch sets the free-text search applied to both lists.
func (s *Session) SetSearch(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = q
}

func (s *Session) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tags)
}

// VisibleEntries is the fetched entry list narrowed by search and tag.
func (s *Session) VisibleEntries() []model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.Entries(s.entries, filter.EntryFilter{Query: s.search, Tag: s.activeTag})
}

// Work examples

// SetExampleFilters selects level, capability and tag for the work-example
// list; "" clears a selection.
func (s *Session) SetExampleFilters(level, capability, tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exFilter = filter.WorkExampleFilter{Level: level, Capability: capability, Tag: tag}
}

// VisibleExamples is the fetched work-example list narrowed by search and
// the example filters.
func (s *Session) VisibleExamples() []model.WorkExample {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.exFilter
	f.Query = s.search
	return filter.WorkExamples(s.examples, f)
}

func (s *Session) FilterOptions() model.FilterOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// Example returns the loaded work example id.
func (s *Session) Example(id string) (model.WorkExample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.examples, func(ex model.WorkExample) bool { return ex.ID == id })
	if i < 0 {
		return model.WorkExample{}, false
	}
	return s.examples[i], true
}

// UpdateForm applies fn to the work-example form.
func (s *Session) UpdateForm(fn func(f *form.WorkExampleForm)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.form)
}

// Form returns a copy of the work-example form.
func (s *Session) Form() form.WorkExampleForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.form
}

// EditExample loads the work example id into the form.
func (s *Session) EditExample(id string) error {
	ex, ok := s.Example(id)
	if !ok {
		return ErrUnknownExample
	}
	s.UpdateForm(func(f *form.WorkExampleForm) { f.Edit(ex) })
	return nil
}

// SubmitExample updates the example being edited, or creates one in Create
// mode. On success the form is reset and closed and the list and vocabulary
// are refetched; on failure the form keeps its contents.
func (s *Session) SubmitExample(ctx context.Context) (*model.WorkExample, error) {
	done, err := s.begin(KindSubmit)
	if err != nil {
		return nil, err
	}
	defer done()

	snapshot := s.Form()
	in := snapshot.Input()

	var saved *model.WorkExample
	var msg string
	switch m := snapshot.Mode.(type) {
	case form.Editing:
		saved, err = s.backend.UpdateWorkExample(ctx, m.ID, in)
		msg = "Work example updated"
	default:
		saved, err = s.backend.CreateWorkExample(ctx, in)
		msg = "Work example created"
	}
	if err != nil {
		return nil, s.fail("save work example", err, "Failed to save work example")
	}
	s.notifier.Success(msg)
	s.UpdateForm(func(f *form.WorkExampleForm) { f.Reset() })

	var g errgroup.Group
	g.Go(func() error { return s.refreshExamples(ctx) })
	g.Go(func() error { return s.refreshOptions(ctx) })
	if err := g.Wait(); err != nil {
		s.fail("refresh work examples", err, "Failed to load work examples")
	}
	return saved, nil
}

// DeleteExample deletes id, removes it locally and refetches the vocabulary.
func (s *Session) DeleteExample(ctx context.Context, id string) error {
	done, err := s.begin(deleteExampleKind(id))
	if err != nil {
		return err
	}
	defer done()

	if err := s.backend.DeleteWorkExample(ctx, id); err != nil {
		return s.fail("delete work example", err, "Failed to delete work example")
	}

	s.mu.Lock()
	s.examples = slices.DeleteFunc(slices.Clone(s.examples), func(ex model.WorkExample) bool { return ex.ID == id })
	if e, ok := s.form.Mode.(form.Editing); ok && e.ID == id {
		s.form.Reset()
	}
	s.mu.Unlock()
	s.notifier.Success("Work example deleted")

	if err := s.refreshOptions(ctx); err != nil {
		s.fail("refresh filters", err, "Failed to load filters")
	}
	return nil
}

// Assessments

// Assess asks the AI to evaluate the loaded work example id at its level and
// keeps the result as the current assessment.
func (s *Session) Assess(ctx context.Context, id string) (string, error) {
	ex, ok := s.Example(id)
	if !ok {
		return "", ErrUnknownExample
	}
	done, err := s.begin(KindAssess)
	if err != nil {
		return "", err
	}
	defer done()

	text, err := s.backend.Assess(ctx, ex.ExampleText, ex.APSLevel)
	if err != nil {
		return "", s.fail("assess", err, "Failed to assess work example")
	}

	s.mu.Lock()
	s.assessment = &model.Assessment{
		WorkExampleID: ex.ID,
		ExampleText:   ex.ExampleText,
		APSLevel:      ex.APSLevel,
		Assessment:    text,
	}
	s.mu.Unlock()
	return text, nil
}

// CurrentAssessment returns the last assessment result, if any.
func (s *Session) CurrentAssessment() (model.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assessment == nil {
		return model.Assessment{}, false
	}
	return *s.assessment, true
}

// SaveAssessment persists the current assessment.
func (s *Session) SaveAssessment(ctx context.Context) (*model.Assessment, error) {
	current, ok := s.CurrentAssessment()
	if !ok {
		return nil, ErrNoAssessment
	}
	done, err := s.begin(KindSave)
	if err != nil {
		return nil, err
	}
	defer done()

	saved, err := s.backend.SaveAssessment(ctx, current)
	if err != nil {
		return nil, s.fail("save assessment", err, "Failed to save assessment")
	}
	s.notifier.Success("Assessment saved")
	return saved, nil
}
