package domain

import "time"

// Step tags the single active position of a conversation.
type Step string

const (
	StepMenu              Step = "menu"
	StepChooseKind        Step = "choose_kind"
	StepChooseCategory    Step = "choose_category"
	StepChooseSubcategory Step = "choose_subcategory"
	StepEnterName         Step = "enter_name"
	StepEnterOrgName      Step = "enter_org_name"
	StepEnterDescription  Step = "enter_description"
	StepAttachFiles       Step = "attach_files"
	StepChooseChannel     Step = "choose_contact_channel"
	StepEnterPhone        Step = "enter_phone"
	StepEnterEmail        Step = "enter_email"
	StepChooseTime        Step = "choose_convenient_time"
	StepManageAwaitID     Step = "manage_await_id"
)

// Fields is the branch-scoped record accumulated across turns. Category,
// subcategory and organization name are legal only on the organization
// branch.
type Fields struct {
	KindID   int64  `json:"kind_id,omitempty"`
	KindCode string `json:"kind_code,omitempty"`
	KindName string `json:"kind_name,omitempty"`

	ClientName       string `json:"client_name,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`

	CategoryID      int64  `json:"category_id,omitempty"`
	CategoryName    string `json:"category_name,omitempty"`
	SubcategoryID   int64  `json:"subcategory_id,omitempty"`
	SubcategoryName string `json:"subcategory_name,omitempty"`

	Description string `json:"description,omitempty"`

	ChannelID   int64  `json:"channel_id,omitempty"`
	ChannelName string `json:"channel_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	TimeID      int64  `json:"time_id,omitempty"`
	TimeName    string `json:"time_name,omitempty"`

	// RunID names the per-submission attachment directory.
	RunID string `json:"run_id,omitempty"`
}

// SessionAttachment references one file already persisted to storage for the
// in-flight session.
type SessionAttachment struct {
	Path         string    `json:"path"`
	OriginalName string    `json:"original_name"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Session is the per-identity conversational state. Exactly one Step is
// current at any time; Fields must stay a subset of what the resolved branch
// allows.
type Session struct {
	Identity       Identity            `json:"identity"`
	Step           Step                `json:"step"`
	Fields         Fields              `json:"fields"`
	Attachments    []SessionAttachment `json:"attachments,omitempty"`
	PendingChoices map[int64]Option    `json:"pending_choices,omitempty"`
}

// NewSession returns a fresh menu-state session for the identity.
func NewSession(identity Identity) Session {
	return Session{Identity: identity, Step: StepMenu}
}

// ResetToMenu discards all accumulated state and returns to the menu.
func (s *Session) ResetToMenu() {
	*s = NewSession(s.Identity)
}

// IsOrganization reports whether the session resolved to the organization
// branch.
func (s *Session) IsOrganization() bool {
	return s.Fields.KindCode == KindOrganization
}

// BranchLegal reports whether the accumulated fields are a subset of the
// fields legal for the resolved branch. Before a kind is chosen only the
// branch-independent fields may be set.
func (s *Session) BranchLegal() bool {
	if s.Fields.KindCode == KindOrganization {
		return true
	}
	return s.Fields.OrganizationName == "" &&
		s.Fields.CategoryID == 0 && s.Fields.CategoryName == "" &&
		s.Fields.SubcategoryID == 0 && s.Fields.SubcategoryName == ""
}
