package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/domain/job"
	xerrors "jobboard-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeQuerier struct {
	lastSQL  string
	lastArgs []any
	row      fakeRow
	tag      pgconn.CommandTag
	execErr  error
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.lastSQL, q.lastArgs = sql, args
	return q.tag, q.execErr
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL, q.lastArgs = sql, args
	return q.row
}

func rowErr(err error) fakeRow {
	return fakeRow{scan: func(...any) error { return err }}
}

func TestFindByEmailScansPrincipal(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	company := int64(9)
	q := &fakeQuerier{row: fakeRow{scan: func(dest ...any) error {
		*dest[0].(*int64) = 42
		*dest[1].(*string) = "corp@example.com"
		*dest[2].(*string) = "$2a$10$hash"
		*dest[3].(*string) = "CORPORATION"
		*dest[4].(**int64) = &company
		*dest[5].(*time.Time) = created
		*dest[6].(*time.Time) = created
		return nil
	}}}
	repo := NewPrincipalRepository(q)

	p, err := repo.FindByEmail(context.Background(), "  Corp@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, auth.RoleCorporation, p.Role)
	require.NotNil(t, p.CompanyID)
	assert.Equal(t, int64(9), *p.CompanyID)
	assert.Equal(t, []any{"corp@example.com"}, q.lastArgs)
}

func TestFindMapsNoRowsToNotFound(t *testing.T) {
	q := &fakeQuerier{row: rowErr(pgx.ErrNoRows)}

	_, err := NewPrincipalRepository(q).FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	_, err = NewJobRepository(q).FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestFindWrapsDriverErrors(t *testing.T) {
	boom := errors.New("connection reset")
	q := &fakeQuerier{row: rowErr(boom)}

	_, err := NewPrincipalRepository(q).FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, xerrors.ErrNotFound)
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	q := &fakeQuerier{row: rowErr(&pgconn.PgError{Code: "23505"})}

	err := NewPrincipalRepository(q).Create(context.Background(), &auth.Principal{Email: "a@b.c", Role: auth.RoleUser})
	assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
}

func TestDeleteReportsMissingRow(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("DELETE 0")}
	assert.ErrorIs(t, NewPrincipalRepository(q).Delete(context.Background(), 7), xerrors.ErrNotFound)
	assert.ErrorIs(t, NewJobRepository(q).Delete(context.Background(), 7), xerrors.ErrNotFound)

	q.tag = pgconn.NewCommandTag("DELETE 1")
	assert.NoError(t, NewPrincipalRepository(q).Delete(context.Background(), 7))
	assert.Equal(t, []any{int64(7)}, q.lastArgs)
}

func TestUpdateRoleAndPassword(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewPrincipalRepository(q)

	require.NoError(t, repo.UpdateRole(context.Background(), 3, auth.RoleAdmin))
	assert.Equal(t, []any{"ADMIN", int64(3)}, q.lastArgs)

	require.NoError(t, repo.UpdatePasswordHash(context.Background(), 3, "$2a$12$new"))
	assert.Equal(t, []any{"$2a$12$new", int64(3)}, q.lastArgs)

	q.tag = pgconn.NewCommandTag("UPDATE 0")
	assert.ErrorIs(t, repo.UpdateRole(context.Background(), 3, auth.RoleUser), xerrors.ErrNotFound)
}

func TestJobCreateAndFind(t *testing.T) {
	now := time.Now().UTC()
	q := &fakeQuerier{row: fakeRow{scan: func(dest ...any) error {
		*dest[0].(*int64) = 11
		*dest[1].(*time.Time) = now
		*dest[2].(*time.Time) = now
		return nil
	}}}
	repo := NewJobRepository(q)

	j := &job.Job{Title: "Go dev", Company: "Acme", Description: "d", Status: job.StatusPending}
	require.NoError(t, repo.Create(context.Background(), j))
	assert.Equal(t, int64(11), j.ID)
	require.Len(t, q.lastArgs, 10)
	assert.Nil(t, q.lastArgs[0].(*int64))
	assert.Equal(t, "PENDING", q.lastArgs[9])

	publisher := int64(42)
	q.row = fakeRow{scan: func(dest ...any) error {
		*dest[0].(*int64) = 11
		*dest[1].(**int64) = &publisher
		*dest[2].(*string) = "Go dev"
		*dest[9].(*pq.StringArray) = pq.StringArray{"go", "remote"}
		*dest[10].(*string) = "PUBLISHED"
		return nil
	}}
	got, err := repo.FindByID(context.Background(), 11)
	require.NoError(t, err)
	assert.True(t, got.PublishedBy(42))
	assert.Equal(t, []string{"go", "remote"}, got.Tags)
	assert.Equal(t, job.StatusPublished, got.Status)
}
