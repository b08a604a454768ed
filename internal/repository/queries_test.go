package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/crmline/intakebot/internal/domain"
)

func TestWrapMapsDriverErrors(t *testing.T) {
	assert.NoError(t, wrap("list", nil))

	assert.ErrorIs(t, wrap("get operator", pgx.ErrNoRows), domain.ErrNotFound)
	assert.ErrorIs(t, wrap("list kinds", context.DeadlineExceeded), domain.ErrTimeout)

	// A deadline that surfaces wrapped inside a driver error is still a
	// timeout, not a generic persistence failure.
	wrapped := fmt.Errorf("query: %w", context.DeadlineExceeded)
	assert.ErrorIs(t, wrap("list kinds", wrapped), domain.ErrTimeout)

	err := wrap("insert intake", errors.New("connection refused"))
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, err.Error(), "insert intake")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrapKeepsOperationInMessage(t *testing.T) {
	err := wrap("get intake details", pgx.ErrNoRows)
	assert.Contains(t, err.Error(), "get intake details")
}
