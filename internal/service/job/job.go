// internal/service/job/job.go
package job

import (
	"context"
	"fmt"
	"strconv"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/domain/job"
	"jobboard-service/internal/pkg/audit"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, j *job.Job) error
	FindByID(ctx context.Context, id int64) (*job.Job, error)
	Update(ctx context.Context, j *job.Job) error
	Delete(ctx context.Context, id int64) error
}

type JobService struct {
	repo   Repository
	audit  *audit.Logger
	logger *zap.Logger
}

func NewJobService(repo Repository, auditLogger *audit.Logger, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{repo: repo, audit: auditLogger, logger: logger}
}

// Submit stores an anonymous submission for moderation. Throttling happens
// before this is reached.
func (s *JobService) Submit(ctx context.Context, req *job.SubmitJobRequest, clientIP string) (*job.Job, error) {
	req.Sanitize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	j := &job.Job{Status: job.StatusPending}
	req.Apply(j)
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}

	s.audit.Record(ctx, audit.EventJobSubmitted, "ip:"+clientIP, map[string]string{
		"job_id": strconv.FormatInt(j.ID, 10),
	})
	return j, nil
}

// Create publishes a job owned by publisher.
func (s *JobService) Create(ctx context.Context, publisher *auth.Principal, req *job.SubmitJobRequest) (*job.Job, error) {
	req.Sanitize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	publisherID := publisher.ID
	j := &job.Job{PublisherID: &publisherID, Status: job.StatusPublished}
	req.Apply(j)
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("job published", zap.Int64("job_id", j.ID), zap.Int64("publisher_id", publisherID))
	return j, nil
}

func (s *JobService) Get(ctx context.Context, id int64) (*job.Job, error) {
	return s.repo.FindByID(ctx, id)
}

// Update rewrites the editable fields of job id. Ownership is checked by the
// guard before this runs.
func (s *JobService) Update(ctx context.Context, id int64, req *job.SubmitJobRequest) (*job.Job, error) {
	req.Sanitize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(j)
	if err := s.repo.Update(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	return j, nil
}

func (s *JobService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	s.audit.Record(ctx, audit.EventJobDeleted, "user:"+strconv.FormatInt(actor.ID, 10), map[string]string{
		"job_id": strconv.FormatInt(id, 10),
		"role":   string(actor.Role),
	})
	return nil
}

// OwnedBy is the ownership check for job routes: the job's publisher must be
// the principal. A missing job surfaces as ErrNotFound.
func (s *JobService) OwnedBy(ctx context.Context, p *auth.Principal, id int64) (bool, error) {
	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return j.PublishedBy(p.ID), nil
}
