package domain

import "time"

// NewIntake is the validated payload handed to the transactional writer.
type NewIntake struct {
	TelegramID       int64
	Username         string
	RequesterKindID  int64
	ClientName       string
	OrganizationName *string
	CategoryID       *int64
	SubcategoryID    *int64
	Description      string
	ContactChannelID int64
	Phone            string
	Email            string
	ConvenientTimeID int64
	Attachments      []NewAttachment
}

// NewAttachment is one file row inserted alongside the intake.
type NewAttachment struct {
	FilePath     string
	OriginalName string
	UploadedAt   time.Time
}

// IntakeRecord is the durable result of a committed session.
type IntakeRecord struct {
	ID        int64
	CreatedAt time.Time
}

// IntakeSummary is one row of the status listing.
type IntakeSummary struct {
	ID               int64
	ClientName       string
	OrganizationName string
	CreatedAt        time.Time
	Status           string
}

// IntakeDetails is the denormalized full record with joined labels.
type IntakeDetails struct {
	ID               int64
	TelegramID       int64
	Username         string
	RequesterKind    string
	ClientName       string
	OrganizationName string
	Category         string
	Subcategory      string
	Description      string
	ContactChannel   string
	Phone            string
	Email            string
	ConvenientTime   string
	Status           string
	CreatedAt        time.Time
}

// Attachment is a stored file row of a committed intake.
type Attachment struct {
	ID           int64
	IntakeID     int64
	FilePath     string
	OriginalName string
	UploadedAt   time.Time
}
