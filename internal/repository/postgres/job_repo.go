// internal/repository/postgres/job_repo.go
package postgres

import (
	"context"

	"jobboard-service/internal/domain/job"
	xerrors "jobboard-service/internal/pkg/errors"

	"github.com/lib/pq"
)

const jobColumns = `id, publisher_id, title, company, location, description, salary,
	apply_url, contact_email, tags, status, created_at, updated_at`

type JobRepository struct {
	db Querier
}

func NewJobRepository(db Querier) *JobRepository {
	return &JobRepository{db: db}
}

// scanJob is a helper function to scan a single job row
func scanJob(row interface {
	Scan(dest ...interface{}) error
}) (*job.Job, error) {
	var j job.Job
	var tags []string
	var status string

	err := row.Scan(
		&j.ID, &j.PublisherID, &j.Title, &j.Company, &j.Location, &j.Description, &j.Salary,
		&j.ApplyURL, &j.ContactEmail, pq.Array(&tags), &status, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Tags = tags
	j.Status = job.Status(status)
	return &j, nil
}

func (r *JobRepository) Create(ctx context.Context, j *job.Job) error {
	query := `
		INSERT INTO jobs (
			publisher_id, title, company, location, description, salary,
			apply_url, contact_email, tags, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		j.PublisherID, j.Title, j.Company, j.Location, j.Description, j.Salary,
		j.ApplyURL, j.ContactEmail, pq.Array(nonNil(j.Tags)), string(j.Status),
	).Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	return mapError(err, "create job")
}

func (r *JobRepository) FindByID(ctx context.Context, id int64) (*job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	j, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "find job")
	}
	return j, nil
}

// Update replaces the editable fields of j.
func (r *JobRepository) Update(ctx context.Context, j *job.Job) error {
	query := `
		UPDATE jobs SET
			title = $1, company = $2, location = $3, description = $4, salary = $5,
			apply_url = $6, contact_email = $7, tags = $8, status = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		j.Title, j.Company, j.Location, j.Description, j.Salary,
		j.ApplyURL, j.ContactEmail, pq.Array(nonNil(j.Tags)), string(j.Status), j.ID,
	).Scan(&j.UpdatedAt)
	return mapError(err, "update job")
}

func (r *JobRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete job")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
