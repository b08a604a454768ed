package workflow

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/crmline/intakebot/internal/domain"
)

// Sentinel values ending the repeatable collection steps, matched
// case-insensitively.
var sentinels = []string{"далее", "next"}

const (
	promptKind        = "Вы обращаетесь как физическое лицо или юридическое?"
	promptCategory    = "🤖 Пожалуйста, выберите категорию:"
	promptSubcategory = "🤖 Пожалуйста, выберите подкатегорию:"
	promptName        = "🤖 Пожалуйста, напишите, как к вам обращаться:"
	promptOrgName     = "🤖 Пожалуйста, напишите, как называется ваша организация:"

	promptDescription = "🤖 Пожалуйста, опишите вашу задачу или проблему. Вы можете также добавить " +
		"любую дополнительную информацию. Напишите всё, что считаете важным.\n\n" +
		"Если вы хотите завершить ввод, отправьте сообщение \"Далее\"."
	promptDescriptionMore  = "🤖 Информация добавлена. Если хотите завершить, отправьте сообщение \"Далее\"."
	promptDescriptionEmpty = "🤖 Описание не может быть пустым. Пожалуйста, опишите вашу задачу или проблему."

	promptAttach = "🤖 Спасибо за предоставленную информацию!\n" +
		"Можете отправить документы (файлы, сканы или инструкции), если они есть. " +
		"Это поможет нам быстрее и точнее обработать вашу заявку.\n\n" +
		"Важно! Документ не должен превышать 20 МБ!\n\n" +
		"Если документов нет, отправьте сообщение \"Далее\"."
	promptAttachSaved = "✅ Файл %s успешно сохранён! Если вы закончили, отправьте сообщение \"Далее\"."
	promptAttachMore  = "🤖 Если вы закончили, отправьте сообщение \"Далее\"."

	promptChannel = "🤖 Спасибо за предоставленную информацию!\nКак с вами связаться?"
	promptPhone   = "🤖 Напишите ваш контактный номер телефона."
	promptEmail   = "🤖 Напишите ваш контактный адрес почты."
	promptTime    = "🤖 Укажите удобное для вас время:"

	menuTextAnonymous = "🤖 Доброго времени суток!\n\n" +
		"Я — ваш помощник в создании технического задания для ИТ-проектов. " +
		"Я помогу собрать все необходимые данные шаг за шагом.\n\n" +
		"Выберите действие:"
	menuTextElevated = "🤖 Доброго времени суток, %s!\n\nВыберите действие:"
)

// ReferenceSource supplies the finite enumerations offered at choice steps.
type ReferenceSource interface {
	RequesterKinds(ctx context.Context) ([]domain.Option, error)
	Categories(ctx context.Context) ([]domain.Option, error)
	Subcategories(ctx context.Context, categoryID int64) ([]domain.Option, error)
	ContactChannels(ctx context.Context) ([]domain.Option, error)
	ConvenientTimes(ctx context.Context) ([]domain.Option, error)
}

// Committer persists a completed session as one durable record.
type Committer interface {
	Commit(ctx context.Context, sess *domain.Session) (*domain.IntakeRecord, error)
}

// Engine sequences the guided intake dialog. Advance is a pure function of
// (step, event, accumulated fields) except for loading choice sets from the
// reference source and invoking the committer at the terminal step.
type Engine struct {
	refs      ReferenceSource
	committer Committer
}

// New builds an engine over the given collaborators.
func New(refs ReferenceSource, committer Committer) *Engine {
	return &Engine{refs: refs, committer: committer}
}

// MenuFor renders the start menu for the resolved profile. Elevated profiles
// additionally see the management entry; engine states are the same for both.
func (e *Engine) MenuFor(profile domain.Profile) Command {
	choices := []Choice{
		{Label: "Статус заявок", Data: DataListStatuses},
		{Label: "Создать заявку", Data: DataStartIntake},
	}
	text := menuTextAnonymous
	if profile.Elevated {
		choices = append(choices, Choice{Label: "Управление заявками", Data: DataManage})
		text = fmt.Sprintf(menuTextElevated, profile.FullName)
	}
	return prompt(text, choices...)
}

// Advance applies one event to the session and returns the successor session
// plus the command to deliver. On a malformed event the returned session
// equals the input and the command re-renders the current step. A non-nil
// error means a collaborator failed; the caller must keep the pre-event
// session.
func (e *Engine) Advance(ctx context.Context, sess domain.Session, ev Event) (domain.Session, Command, error) {
	if ev.Kind == EventRestart {
		sess.ResetToMenu()
		return sess, Command{Kind: CmdMenu}, nil
	}

	switch sess.Step {
	case domain.StepMenu, "":
		return e.advanceMenu(ctx, sess, ev)
	case domain.StepChooseKind:
		return e.advanceKind(ctx, sess, ev)
	case domain.StepChooseCategory:
		return e.advanceCategory(ctx, sess, ev)
	case domain.StepChooseSubcategory:
		return e.advanceSubcategory(sess, ev)
	case domain.StepEnterName:
		return e.advanceName(sess, ev)
	case domain.StepEnterOrgName:
		return e.advanceOrgName(sess, ev)
	case domain.StepEnterDescription:
		return e.advanceDescription(sess, ev)
	case domain.StepAttachFiles:
		return e.advanceAttachments(ctx, sess, ev)
	case domain.StepChooseChannel:
		return e.advanceChannel(sess, ev)
	case domain.StepEnterPhone:
		return e.advancePhone(sess, ev)
	case domain.StepEnterEmail:
		return e.advanceEmail(ctx, sess, ev)
	case domain.StepChooseTime:
		return e.advanceTime(ctx, sess, ev)
	default:
		// Unknown or management step reached the engine: recover to menu.
		sess.ResetToMenu()
		return sess, Command{Kind: CmdMenu}, nil
	}
}

func (e *Engine) advanceMenu(ctx context.Context, sess domain.Session, ev Event) (domain.Session, Command, error) {
	if ev.Kind != EventChoice || ev.Data != DataStartIntake {
		return sess, Command{Kind: CmdMenu}, nil
	}
	kinds, err := e.refs.RequesterKinds(ctx)
	if err != nil {
		return sess, Command{}, fmt.Errorf("load requester kinds: %w", err)
	}
	sess.ResetToMenu()
	sess.Fields.RunID = uuid.NewString()
	sess.Step = domain.StepChooseKind
	sess.PendingChoices = choiceMap(kinds)
	return sess, prompt(promptKind, optionChoices(kinds)...), nil
}

func (e *Engine) advanceKind(ctx context.Context, sess domain.Session, ev Event) (domain.Session, Command, error) {
	opt, ok := pickedOption(sess, ev)
	if !ok {
		return sess, prompt(promptKind, pendingChoices(sess)...), nil
	}
	sess.Fields.KindID = opt.ID
	sess.Fields.KindName = opt.Label
	sess.Fields.KindCode = opt.Code

	if opt.Code == domain.KindOrganization {
		categories, err := e.refs.Categories(ctx)
		if err != nil {
			return sess, Command{}, fmt.Errorf("load categories: %w", err)
		}
		sess.Step = domain.StepChooseCategory
		sess.PendingChoices = choiceMap(categories)
		return sess, prompt(promptCategory, optionChoices(categories)...), nil
	}

	sess.Step = domain.StepEnterName
	sess.PendingChoices = nil
	return sess, prompt(promptName), nil
}

func (e *Engine) advanceCategory(ctx context.Context, sess domain.Session, ev Event) (domain.Session, Command, error) {
	opt, ok := pickedOption(sess, ev)
	if !ok {
		return sess, prompt(promptCategory, pendingChoices(sess)...), nil
	}
	sess.Fields.CategoryID = opt.ID
	sess.Fields.CategoryName = opt.Label

	subcategories, err := e.refs.Subcategories(ctx, opt.ID)
	if err != nil {
		return sess, Command{}, fmt.Errorf("load subcategories: %w", err)
	}
	if len(subcategories) == 0 {
		// Category without subcategories: skip straight to the name.
		sess.Step = domain.StepEnterName
		sess.PendingChoices = nil
		return sess, prompt(promptName), nil
	}
	sess.Step = domain.StepChooseSubcategory
	sess.PendingChoices = choiceMap(subcategories)
	return sess, prompt(promptSubcategory, optionChoices(subcategories)...), nil
}

func (e *Engine) advanceSubcategory(sess domain.Session, ev Event) (domain.Session, Command, error) {
	opt, ok := pickedOption(sess, ev)
	if !ok {
		return sess, prompt(promptSubcategory, pendingChoices(sess)...), nil
	}
	sess.Fields.SubcategoryID = opt.ID
	sess.Fields.SubcategoryName = opt.Label
	sess.Step = domain.StepEnterName
	sess.PendingChoices = nil
	return sess, prompt(promptName), nil
}

func (e *Engine) advanceName(sess domain.Session, ev Event) (domain.Session, Command, error) {
	text, ok := textInput(ev)
	if !ok {
		return sess, prompt(promptName), nil
	}
	sess.Fields.ClientName = text
	if sess.IsOrganization() {
		sess.Step = domain.StepEnterOrgName
		return sess, prompt(promptOrgName), nil
	}
	sess.Step = domain.StepEnterDescription
	return sess, prompt(promptDescription), nil
}

func (e *Engine) advanceOrgName(sess domain.Session, ev Event) (domain.Session, Command, error) {
	text, ok := textInput(ev)
	if !ok {
		return sess, prompt(promptOrgName), nil
	}
	sess.Fields.OrganizationName = text
	sess.Step = domain.StepEnterDescription
	return sess, prompt(promptDescription), nil
}

func (e *Engine) advanceDescription(sess domain.Session, ev Event) (domain.Session, Command, error) {
	text, ok := textInput(ev)
	if !ok {
		return sess, prompt(promptDescription), nil
	}
	if isSentinel(text) {
		if sess.Fields.Description == "" {
			return sess, prompt(promptDescriptionEmpty), nil
		}
		sess.Step = domain.StepAttachFiles
		return sess, Command{Kind: CmdRequestFile, Text: promptAttach}, nil
	}
	if sess.Fields.Description == "" {
		sess.Fields.Description = text
	} else {
		sess.Fields.Description += "\n" + text
	}
	return sess, prompt(promptDescriptionMore), nil
}

func (e *Engine) advanceAttachments(ctx context.Context, sess domain.Session, ev Event) (domain.Session, Command, error) {
	switch ev.Kind {
	case EventFile:
		atts := make([]domain.SessionAttachment, 0, len(sess.Attachments)+1)
		atts = append(atts, sess.Attachments...)
		sess.Attachments = append(atts, *ev.File)
		return sess, Command{Kind: CmdRequestFile, Text: fmt.Sprintf(promptAttachSaved, ev.File.OriginalName)}, nil
	case EventText:
		if !isSentinel(ev.Text) {
			return sess, Command{Kind: CmdRequestFile, Text: promptAttachMore}, nil
		}
		channels, err := e.refs.ContactChannels(ctx)
		if err != nil {
			return sess, Command{}, fmt.Errorf("load contact channels: %w", err)
		}
		sess.Step = domain.StepChooseChannel
		sess.PendingChoices = choiceMap(channels)
		return sess, prompt(promptChannel, optionChoices(channels)...), nil
	default:
		return sess, Command{Kind: CmdRequestFile, Text: promptAttachMore}, nil
	}
}

func (e *Engine) advanceChannel(sess domain.Session, ev Event) (domain.Session, Command, error) {
	opt, ok := pickedOption(sess, ev)
	if !ok {
		return sess, prompt(promptChannel, pendingChoices(sess)...), nil
	}
	sess.Fields.ChannelID = opt.ID
	sess.Fields.ChannelName = opt.Label
	sess.Step = domain.StepEnterPhone
	sess.PendingChoices = nil
	return sess, prompt(promptPhone), nil
}

func (e *Engine) advancePhone(sess domain.Session, ev Event) (domain.Session, Command, error) {
	text, ok := textInput(ev)
	if !ok {
		return sess, prompt(promptPhone), nil
	}
	sess.Fields.Phone = text
	sess.Step = domain.StepEnterEmail
	return sess, prompt(promptEmail), nil
}

func (e *Engine) advanceEmail(ctx context.Context, sess domain.Session, ev Event) (domain.Session, Command, error) {
	text, ok := textInput(ev)
	if !ok {
		return sess, prompt(promptEmail), nil
	}
	sess.Fields.Email = text

	times, err := e.refs.ConvenientTimes(ctx)
	if err != nil {
		return sess, Command{}, fmt.Errorf("load convenient times: %w", err)
	}
	sess.Step = domain.StepChooseTime
	sess.PendingChoices = choiceMap(times)
	return sess, prompt(promptTime, optionChoices(times)...), nil
}

func (e *Engine) advanceTime(ctx context.Context, sess domain.Session, ev Event) (domain.Session, Command, error) {
	orig := sess
	opt, ok := pickedOption(sess, ev)
	if !ok {
		return sess, prompt(promptTime, pendingChoices(sess)...), nil
	}
	sess.Fields.TimeID = opt.ID
	sess.Fields.TimeName = opt.Label

	record, err := e.committer.Commit(ctx, &sess)
	if err != nil {
		// Fully revert: the stored session must stay at the pre-event step.
		return orig, Command{}, fmt.Errorf("commit intake: %w", err)
	}

	sess.ResetToMenu()
	return sess, Command{Kind: CmdSubmitted, Record: record}, nil
}

// pickedOption validates a choice event against the option set offered at the
// current step.
func pickedOption(sess domain.Session, ev Event) (domain.Option, bool) {
	if ev.Kind != EventChoice {
		return domain.Option{}, false
	}
	id, err := strconv.ParseInt(ev.Data, 10, 64)
	if err != nil {
		return domain.Option{}, false
	}
	opt, ok := sess.PendingChoices[id]
	return opt, ok
}

func textInput(ev Event) (string, bool) {
	if ev.Kind != EventText {
		return "", false
	}
	text := strings.TrimSpace(ev.Text)
	return text, text != ""
}

func isSentinel(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, s := range sentinels {
		if text == s {
			return true
		}
	}
	return false
}

func choiceMap(opts []domain.Option) map[int64]domain.Option {
	m := make(map[int64]domain.Option, len(opts))
	for _, o := range opts {
		m[o.ID] = o
	}
	return m
}

func optionChoices(opts []domain.Option) []Choice {
	choices := make([]Choice, len(opts))
	for i, o := range opts {
		choices[i] = Choice{Label: o.Label, Data: strconv.FormatInt(o.ID, 10)}
	}
	return choices
}

// pendingChoices rebuilds the inline choices for the option set already
// stored in the session, ordered by identifier for a stable keyboard.
func pendingChoices(sess domain.Session) []Choice {
	ids := make([]int64, 0, len(sess.PendingChoices))
	for id := range sess.PendingChoices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	choices := make([]Choice, len(ids))
	for i, id := range ids {
		choices[i] = Choice{Label: sess.PendingChoices[id].Label, Data: strconv.FormatInt(id, 10)}
	}
	return choices
}
