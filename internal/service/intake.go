package service

import (
	"context"
	"fmt"

	"github.com/crmline/intakebot/internal/domain"
)

type intakeWriter interface {
	CreateIntake(ctx context.Context, in domain.NewIntake) (*domain.IntakeRecord, error)
}

// IntakeService turns a completed session into one durable record plus its
// attachment rows, atomically. It satisfies workflow.Committer.
type IntakeService struct {
	store intakeWriter
}

func NewIntakeService(store intakeWriter) *IntakeService {
	return &IntakeService{store: store}
}

// Commit re-checks that every branch-required field is present (the engine
// must not have reached the terminal step otherwise) and writes everything in
// one transaction.
func (s *IntakeService) Commit(ctx context.Context, sess *domain.Session) (*domain.IntakeRecord, error) {
	in, err := buildIntake(sess)
	if err != nil {
		return nil, err
	}
	return s.store.CreateIntake(ctx, in)
}

func buildIntake(sess *domain.Session) (domain.NewIntake, error) {
	f := sess.Fields
	required := map[string]bool{
		"requester kind":  f.KindID != 0,
		"client name":     f.ClientName != "",
		"description":     f.Description != "",
		"contact channel": f.ChannelID != 0,
		"phone":           f.Phone != "",
		"email":           f.Email != "",
		"convenient time": f.TimeID != 0,
	}
	for name, ok := range required {
		if !ok {
			return domain.NewIntake{}, fmt.Errorf("%w: missing %s", domain.ErrValidation, name)
		}
	}

	in := domain.NewIntake{
		TelegramID:       sess.Identity.TelegramID,
		Username:         sess.Identity.Username,
		RequesterKindID:  f.KindID,
		ClientName:       f.ClientName,
		Description:      f.Description,
		ContactChannelID: f.ChannelID,
		Phone:            f.Phone,
		Email:            f.Email,
		ConvenientTimeID: f.TimeID,
	}

	switch f.KindCode {
	case domain.KindOrganization:
		if f.OrganizationName == "" {
			return domain.NewIntake{}, fmt.Errorf("%w: missing organization name", domain.ErrValidation)
		}
		if f.CategoryID == 0 {
			return domain.NewIntake{}, fmt.Errorf("%w: missing category", domain.ErrValidation)
		}
		org := f.OrganizationName
		in.OrganizationName = &org
		cat := f.CategoryID
		in.CategoryID = &cat
		if f.SubcategoryID != 0 {
			sub := f.SubcategoryID
			in.SubcategoryID = &sub
		}
	case domain.KindIndividual:
		if f.OrganizationName != "" || f.CategoryID != 0 || f.SubcategoryID != 0 {
			return domain.NewIntake{}, fmt.Errorf("%w: organization fields on individual branch", domain.ErrValidation)
		}
	default:
		return domain.NewIntake{}, fmt.Errorf("%w: unknown requester kind %q", domain.ErrValidation, f.KindCode)
	}

	for _, att := range sess.Attachments {
		in.Attachments = append(in.Attachments, domain.NewAttachment{
			FilePath:     att.Path,
			OriginalName: att.OriginalName,
			UploadedAt:   att.UploadedAt,
		})
	}
	return in, nil
}
