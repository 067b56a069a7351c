package job

import (
	"context"
	"sync"
	"testing"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/domain/job"
	"jobboard-service/internal/pkg/audit"
	xerrors "jobboard-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryJobs struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*job.Job
}

func newMemoryJobs() *memoryJobs {
	return &memoryJobs{jobs: map[int64]*job.Job{}}
}

func (m *memoryJobs) Create(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	j.ID = m.nextID
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *memoryJobs) FindByID(_ context.Context, id int64) (*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memoryJobs) Update(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.ID]; !ok {
		return xerrors.ErrNotFound
	}
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *memoryJobs) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func newService() (*JobService, *memoryJobs, *audit.MemorySink) {
	repo := newMemoryJobs()
	sink := audit.NewMemorySink()
	return NewJobService(repo, audit.NewLogger(nil, nil, sink), nil), repo, sink
}

func validRequest() *job.SubmitJobRequest {
	return &job.SubmitJobRequest{
		Title:       "Backend <b>Engineer</b>",
		Company:     "Acme",
		Description: `Build things <script>alert(1)</script> <a onclick="x()">here</a>`,
		Tags:        []string{" go ", "", "<i>"},
	}
}

func TestSubmitSanitizesAndQueues(t *testing.T) {
	svc, repo, sink := newService()

	j, err := svc.Submit(context.Background(), validRequest(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, j.Status)
	assert.Nil(t, j.PublisherID)
	assert.Equal(t, "Backend bEngineer/b", j.Title)
	assert.NotContains(t, j.Description, "<")
	assert.NotContains(t, j.Description, "onclick")

	stored, err := repo.FindByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.Description, stored.Description)

	events := sink.OfType(audit.EventJobSubmitted)
	require.Len(t, events, 1)
	assert.Equal(t, "ip:10.0.0.1", events[0].SubjectKey)
}

func TestSubmitRejectsFieldsEmptiedBySanitizing(t *testing.T) {
	svc, repo, _ := newService()
	req := validRequest()
	req.Title = "   "

	_, err := svc.Submit(context.Background(), req, "10.0.0.1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Empty(t, repo.jobs)
}

func TestCreateUpdateDeleteOwned(t *testing.T) {
	svc, repo, sink := newService()
	ctx := context.Background()
	corp := &auth.Principal{ID: 42, Role: auth.RoleCorporation}
	other := &auth.Principal{ID: 99, Role: auth.RoleCorporation}

	j, err := svc.Create(ctx, corp, validRequest())
	require.NoError(t, err)
	assert.Equal(t, job.StatusPublished, j.Status)
	require.NotNil(t, j.PublisherID)
	assert.Equal(t, int64(42), *j.PublisherID)

	owned, err := svc.OwnedBy(ctx, corp, j.ID)
	require.NoError(t, err)
	assert.True(t, owned)
	owned, err = svc.OwnedBy(ctx, other, j.ID)
	require.NoError(t, err)
	assert.False(t, owned)
	_, err = svc.OwnedBy(ctx, corp, 12345)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	req := validRequest()
	req.Title = "Staff Engineer"
	updated, err := svc.Update(ctx, j.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", updated.Title)
	assert.Equal(t, int64(42), *updated.PublisherID)

	require.NoError(t, svc.Delete(ctx, corp, j.ID))
	assert.Empty(t, repo.jobs)
	events := sink.OfType(audit.EventJobDeleted)
	require.Len(t, events, 1)
	assert.Equal(t, "user:42", events[0].SubjectKey)

	assert.ErrorIs(t, svc.Delete(ctx, corp, j.ID), xerrors.ErrNotFound)
}

func TestAnonymousJobsBelongToNobody(t *testing.T) {
	svc, _, _ := newService()
	j, err := svc.Submit(context.Background(), validRequest(), "10.0.0.1")
	require.NoError(t, err)

	owned, err := svc.OwnedBy(context.Background(), &auth.Principal{ID: 0}, j.ID)
	require.NoError(t, err)
	assert.False(t, owned)
}
