package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmline/intakebot/internal/domain"
)

type fakeRefs struct {
	kinds       []domain.Option
	categories  []domain.Option
	subcats     map[int64][]domain.Option
	channels    []domain.Option
	times       []domain.Option
	err         error
	subcatCalls []int64
}

func (f *fakeRefs) RequesterKinds(context.Context) ([]domain.Option, error) {
	return f.kinds, f.err
}

func (f *fakeRefs) Categories(context.Context) ([]domain.Option, error) {
	return f.categories, f.err
}

func (f *fakeRefs) Subcategories(_ context.Context, categoryID int64) ([]domain.Option, error) {
	f.subcatCalls = append(f.subcatCalls, categoryID)
	return f.subcats[categoryID], f.err
}

func (f *fakeRefs) ContactChannels(context.Context) ([]domain.Option, error) {
	return f.channels, f.err
}

func (f *fakeRefs) ConvenientTimes(context.Context) ([]domain.Option, error) {
	return f.times, f.err
}

type fakeCommitter struct {
	err       error
	committed []domain.Session
	nextID    int64
}

func (f *fakeCommitter) Commit(_ context.Context, sess *domain.Session) (*domain.IntakeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.committed = append(f.committed, *sess)
	f.nextID++
	return &domain.IntakeRecord{ID: f.nextID}, nil
}

func newTestRefs() *fakeRefs {
	return &fakeRefs{
		kinds: []domain.Option{
			{ID: 1, Label: "Физическое лицо", Code: domain.KindIndividual},
			{ID: 2, Label: "Юридическое лицо", Code: domain.KindOrganization},
		},
		categories: []domain.Option{{ID: 10, Label: "C1"}, {ID: 11, Label: "C2"}},
		subcats: map[int64][]domain.Option{
			10: {{ID: 20, Label: "S1"}},
		},
		channels: []domain.Option{{ID: 30, Label: "Телефон"}},
		times:    []domain.Option{{ID: 40, Label: "Утро"}},
	}
}

func newTestEngine() (*Engine, *fakeRefs, *fakeCommitter) {
	refs := newTestRefs()
	committer := &fakeCommitter{}
	return New(refs, committer), refs, committer
}

func advance(t *testing.T, e *Engine, sess domain.Session, ev Event) (domain.Session, Command) {
	t.Helper()
	next, cmd, err := e.Advance(context.Background(), sess, ev)
	require.NoError(t, err)
	require.True(t, next.BranchLegal(), "fields must stay legal for the branch at step %s", next.Step)
	return next, cmd
}

func TestIndividualFlow(t *testing.T) {
	e, _, committer := newTestEngine()
	identity := domain.Identity{TelegramID: 100, Username: "ivan"}
	sess := domain.NewSession(identity)

	sess, cmd := advance(t, e, sess, ChoiceEvent(DataStartIntake))
	assert.Equal(t, domain.StepChooseKind, sess.Step)
	require.Len(t, cmd.Choices, 2)
	assert.NotEmpty(t, sess.Fields.RunID)

	sess, cmd = advance(t, e, sess, ChoiceEvent("1"))
	assert.Equal(t, domain.StepEnterName, sess.Step)
	assert.Equal(t, domain.KindIndividual, sess.Fields.KindCode)
	assert.Empty(t, cmd.Choices)

	sess, _ = advance(t, e, sess, TextEvent("Ivan"))
	assert.Equal(t, domain.StepEnterDescription, sess.Step)

	sess, _ = advance(t, e, sess, TextEvent("need help"))
	assert.Equal(t, domain.StepEnterDescription, sess.Step, "description step repeats")

	sess, cmd = advance(t, e, sess, TextEvent("next"))
	assert.Equal(t, domain.StepAttachFiles, sess.Step)
	assert.Equal(t, CmdRequestFile, cmd.Kind)

	sess, _ = advance(t, e, sess, TextEvent("Далее"))
	assert.Equal(t, domain.StepChooseChannel, sess.Step)

	sess, _ = advance(t, e, sess, ChoiceEvent("30"))
	sess, _ = advance(t, e, sess, TextEvent("123"))
	sess, _ = advance(t, e, sess, TextEvent("a@b.c"))
	assert.Equal(t, domain.StepChooseTime, sess.Step)

	sess, cmd = advance(t, e, sess, ChoiceEvent("40"))
	assert.Equal(t, CmdSubmitted, cmd.Kind)
	require.NotNil(t, cmd.Record)
	assert.Equal(t, domain.StepMenu, sess.Step)
	assert.Equal(t, domain.Fields{}, sess.Fields, "session reset after submission")

	require.Len(t, committer.committed, 1)
	got := committer.committed[0]
	assert.Equal(t, "Ivan", got.Fields.ClientName)
	assert.Equal(t, "need help", got.Fields.Description)
	assert.Equal(t, "123", got.Fields.Phone)
	assert.Equal(t, "a@b.c", got.Fields.Email)
	assert.Equal(t, int64(30), got.Fields.ChannelID)
	assert.Equal(t, int64(40), got.Fields.TimeID)
	assert.Empty(t, got.Attachments)
	assert.Zero(t, got.Fields.CategoryID, "no category on the individual branch")
	assert.Empty(t, got.Fields.OrganizationName)
	assert.Equal(t, identity, got.Identity)
}

func TestOrganizationFlow(t *testing.T) {
	e, refs, committer := newTestEngine()
	sess := domain.NewSession(domain.Identity{TelegramID: 200})

	sess, _ = advance(t, e, sess, ChoiceEvent(DataStartIntake))
	sess, _ = advance(t, e, sess, ChoiceEvent("2"))
	assert.Equal(t, domain.StepChooseCategory, sess.Step)

	sess, _ = advance(t, e, sess, ChoiceEvent("10"))
	assert.Equal(t, domain.StepChooseSubcategory, sess.Step)
	assert.Equal(t, []int64{10}, refs.subcatCalls, "subcategories scoped to the chosen category")

	sess, _ = advance(t, e, sess, ChoiceEvent("20"))
	sess, _ = advance(t, e, sess, TextEvent("Ivan"))
	assert.Equal(t, domain.StepEnterOrgName, sess.Step)

	sess, _ = advance(t, e, sess, TextEvent("Acme"))
	sess, _ = advance(t, e, sess, TextEvent("migrate our CRM"))
	sess, _ = advance(t, e, sess, TextEvent("далее"))

	att := domain.SessionAttachment{Path: "/files/a.pdf", OriginalName: "a.pdf"}
	sess, cmd := advance(t, e, sess, FileEvent(att))
	assert.Equal(t, domain.StepAttachFiles, sess.Step, "file step repeats")
	assert.Equal(t, CmdRequestFile, cmd.Kind)

	sess, _ = advance(t, e, sess, TextEvent("далее"))
	sess, _ = advance(t, e, sess, ChoiceEvent("30"))
	sess, _ = advance(t, e, sess, TextEvent("555"))
	sess, _ = advance(t, e, sess, TextEvent("acme@example.com"))
	sess, cmd = advance(t, e, sess, ChoiceEvent("40"))
	assert.Equal(t, CmdSubmitted, cmd.Kind)

	require.Len(t, committer.committed, 1)
	got := committer.committed[0]
	assert.Equal(t, "Acme", got.Fields.OrganizationName)
	assert.Equal(t, int64(10), got.Fields.CategoryID)
	assert.Equal(t, "C1", got.Fields.CategoryName)
	assert.Equal(t, int64(20), got.Fields.SubcategoryID)
	assert.Equal(t, "S1", got.Fields.SubcategoryName)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "a.pdf", got.Attachments[0].OriginalName)
}

func TestCategoryWithoutSubcategoriesSkipsToName(t *testing.T) {
	e, _, _ := newTestEngine()
	sess := domain.NewSession(domain.Identity{TelegramID: 1})

	sess, _ = advance(t, e, sess, ChoiceEvent(DataStartIntake))
	sess, _ = advance(t, e, sess, ChoiceEvent("2"))
	sess, _ = advance(t, e, sess, ChoiceEvent("11"))
	assert.Equal(t, domain.StepEnterName, sess.Step)
}

func TestMalformedEventsDoNotAdvance(t *testing.T) {
	e, _, _ := newTestEngine()
	sess := domain.NewSession(domain.Identity{TelegramID: 1})
	sess, _ = advance(t, e, sess, ChoiceEvent(DataStartIntake))

	for name, ev := range map[string]Event{
		"non-numeric choice":  ChoiceEvent("abc"),
		"unknown option id":   ChoiceEvent("999"),
		"text at choice step": TextEvent("hello"),
		"file at choice step": FileEvent(domain.SessionAttachment{Path: "x"}),
	} {
		next, cmd := advance(t, e, sess, ev)
		assert.Equal(t, sess, next, "%s must not mutate the session", name)
		assert.Equal(t, CmdPrompt, cmd.Kind, "%s re-prompts", name)
		assert.Len(t, cmd.Choices, 2, "%s re-renders the offered choices", name)
	}

	// Empty text where text is expected.
	sess, _ = advance(t, e, sess, ChoiceEvent("1"))
	next, _ := advance(t, e, sess, TextEvent("   "))
	assert.Equal(t, sess, next)
}

func TestDescriptionSentinelRequiresNonEmpty(t *testing.T) {
	e, _, _ := newTestEngine()
	sess := domain.NewSession(domain.Identity{TelegramID: 1})
	sess, _ = advance(t, e, sess, ChoiceEvent(DataStartIntake))
	sess, _ = advance(t, e, sess, ChoiceEvent("1"))
	sess, _ = advance(t, e, sess, TextEvent("Ivan"))

	next, cmd := advance(t, e, sess, TextEvent("Далее"))
	assert.Equal(t, domain.StepEnterDescription, next.Step, "sentinel with empty description re-prompts")
	assert.Equal(t, CmdPrompt, cmd.Kind)
}

func TestRestartFromAnyStateIsIdempotent(t *testing.T) {
	e, _, _ := newTestEngine()
	sess := domain.NewSession(domain.Identity{TelegramID: 1})
	sess, _ = advance(t, e, sess, ChoiceEvent(DataStartIntake))
	sess, _ = advance(t, e, sess, ChoiceEvent("2"))
	sess, _ = advance(t, e, sess, ChoiceEvent("10"))

	sess, cmd := advance(t, e, sess, RestartEvent())
	assert.Equal(t, CmdMenu, cmd.Kind)
	assert.Equal(t, domain.StepMenu, sess.Step)
	assert.Equal(t, domain.Fields{}, sess.Fields)

	// Restarting again changes nothing.
	again, cmd := advance(t, e, sess, RestartEvent())
	assert.Equal(t, CmdMenu, cmd.Kind)
	assert.Equal(t, sess, again)
}

func TestCommitFailureKeepsPreEventSession(t *testing.T) {
	e, _, committer := newTestEngine()
	sess := domain.NewSession(domain.Identity{TelegramID: 1})
	sess, _ = advance(t, e, sess, ChoiceEvent(DataStartIntake))
	sess, _ = advance(t, e, sess, ChoiceEvent("1"))
	sess, _ = advance(t, e, sess, TextEvent("Ivan"))
	sess, _ = advance(t, e, sess, TextEvent("help"))
	sess, _ = advance(t, e, sess, TextEvent("next"))
	sess, _ = advance(t, e, sess, TextEvent("next"))
	sess, _ = advance(t, e, sess, ChoiceEvent("30"))
	sess, _ = advance(t, e, sess, TextEvent("123"))
	sess, _ = advance(t, e, sess, TextEvent("a@b.c"))

	committer.err = domain.ErrPersistence
	next, _, err := e.Advance(context.Background(), sess, ChoiceEvent("40"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPersistence))
	assert.Equal(t, sess, next, "failed commit reverts to the pre-event session")
	assert.Empty(t, committer.committed)

	// After the failure clears, the same event commits exactly once.
	committer.err = nil
	next, cmd := advance(t, e, next, ChoiceEvent("40"))
	assert.Equal(t, CmdSubmitted, cmd.Kind)
	assert.Equal(t, domain.StepMenu, next.Step)
	assert.Len(t, committer.committed, 1)
}

func TestReferenceFailureKeepsSession(t *testing.T) {
	e, refs, _ := newTestEngine()
	sess := domain.NewSession(domain.Identity{TelegramID: 1})

	refs.err = domain.ErrTimeout
	next, _, err := e.Advance(context.Background(), sess, ChoiceEvent(DataStartIntake))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout))
	assert.Equal(t, sess, next)
}

func TestMenuGating(t *testing.T) {
	e, _, _ := newTestEngine()

	anon := e.MenuFor(domain.Anonymous)
	require.Len(t, anon.Choices, 2)

	elevated := e.MenuFor(domain.Profile{Elevated: true, FullName: "Оператор", CanRead: true})
	require.Len(t, elevated.Choices, 3)
	assert.Equal(t, DataManage, elevated.Choices[2].Data)
}

func TestMenuIgnoresUnknownEvents(t *testing.T) {
	e, _, _ := newTestEngine()
	sess := domain.NewSession(domain.Identity{TelegramID: 1})

	next, cmd := advance(t, e, sess, TextEvent("hello"))
	assert.Equal(t, CmdMenu, cmd.Kind)
	assert.Equal(t, sess, next)
}
