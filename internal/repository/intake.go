package repository

import (
	"context"

	"github.com/crmline/intakebot/internal/domain"
)

// CreateIntake writes the intake row plus all attachment rows in one
// transaction. Any failure rolls the whole submission back, so partial
// records are never visible to readers.
func (q *Queries) CreateIntake(ctx context.Context, in domain.NewIntake) (*domain.IntakeRecord, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return nil, wrap("begin intake tx", err)
	}
	defer tx.Rollback(ctx)

	var record domain.IntakeRecord
	err = tx.QueryRow(ctx,
		`INSERT INTO intakes (telegram_id, username, requester_kind_id, client_name,
		                      organization_name, category_id, subcategory_id, description,
		                      contact_channel_id, phone, email, convenient_time_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at`,
		in.TelegramID, in.Username, in.RequesterKindID, in.ClientName,
		in.OrganizationName, in.CategoryID, in.SubcategoryID, in.Description,
		in.ContactChannelID, in.Phone, in.Email, in.ConvenientTimeID).
		Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return nil, wrap("insert intake", err)
	}

	for _, att := range in.Attachments {
		_, err := tx.Exec(ctx,
			`INSERT INTO attachments (intake_id, file_path, original_name, uploaded_at)
			 VALUES ($1, $2, $3, $4)`,
			record.ID, att.FilePath, att.OriginalName, att.UploadedAt)
		if err != nil {
			return nil, wrap("insert attachment", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrap("commit intake tx", err)
	}
	return &record, nil
}

func (q *Queries) listSummaries(ctx context.Context, op, query string, args ...any) ([]domain.IntakeSummary, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var summaries []domain.IntakeSummary
	for rows.Next() {
		var s domain.IntakeSummary
		if err := rows.Scan(&s.ID, &s.ClientName, &s.OrganizationName, &s.CreatedAt, &s.Status); err != nil {
			return nil, wrap(op, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, wrap(op, rows.Err())
}

// ListIntakeSummaries returns every intake, newest first.
func (q *Queries) ListIntakeSummaries(ctx context.Context) ([]domain.IntakeSummary, error) {
	return q.listSummaries(ctx, "list intakes",
		`SELECT i.id, i.client_name, COALESCE(i.organization_name, ''), i.created_at, s.name
		 FROM intakes i JOIN statuses s ON i.status_id = s.id
		 ORDER BY i.created_at DESC`)
}

// ListIntakeSummariesByRequester returns only the caller's intakes, newest
// first.
func (q *Queries) ListIntakeSummariesByRequester(ctx context.Context, telegramID int64) ([]domain.IntakeSummary, error) {
	return q.listSummaries(ctx, "list intakes by requester",
		`SELECT i.id, i.client_name, COALESCE(i.organization_name, ''), i.created_at, s.name
		 FROM intakes i JOIN statuses s ON i.status_id = s.id
		 WHERE i.telegram_id = $1
		 ORDER BY i.created_at DESC`, telegramID)
}

// GetIntakeDetails returns the denormalized record with joined labels.
func (q *Queries) GetIntakeDetails(ctx context.Context, id int64) (*domain.IntakeDetails, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var d domain.IntakeDetails
	err := q.pool.QueryRow(ctx,
		`SELECT i.id, i.telegram_id, i.username, rk.name, i.client_name,
		        COALESCE(i.organization_name, ''), COALESCE(c.name, ''), COALESCE(sc.name, ''),
		        i.description, ch.name, i.phone, i.email, ct.name, s.name, i.created_at
		 FROM intakes i
		 JOIN requester_kinds rk ON i.requester_kind_id = rk.id
		 LEFT JOIN categories c ON i.category_id = c.id
		 LEFT JOIN subcategories sc ON i.subcategory_id = sc.id
		 JOIN contact_channels ch ON i.contact_channel_id = ch.id
		 JOIN convenient_times ct ON i.convenient_time_id = ct.id
		 JOIN statuses s ON i.status_id = s.id
		 WHERE i.id = $1`, id).
		Scan(&d.ID, &d.TelegramID, &d.Username, &d.RequesterKind, &d.ClientName,
			&d.OrganizationName, &d.Category, &d.Subcategory,
			&d.Description, &d.ContactChannel, &d.Phone, &d.Email,
			&d.ConvenientTime, &d.Status, &d.CreatedAt)
	if err != nil {
		return nil, wrap("get intake details", err)
	}
	return &d, nil
}

// ListAttachments returns the stored files of one intake in upload order.
func (q *Queries) ListAttachments(ctx context.Context, intakeID int64) ([]domain.Attachment, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	rows, err := q.pool.Query(ctx,
		`SELECT id, intake_id, file_path, original_name, uploaded_at
		 FROM attachments WHERE intake_id = $1 ORDER BY uploaded_at ASC, id ASC`, intakeID)
	if err != nil {
		return nil, wrap("list attachments", err)
	}
	defer rows.Close()

	var atts []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.IntakeID, &a.FilePath, &a.OriginalName, &a.UploadedAt); err != nil {
			return nil, wrap("list attachments", err)
		}
		atts = append(atts, a)
	}
	return atts, wrap("list attachments", rows.Err())
}
