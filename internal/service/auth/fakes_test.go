package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/pkg/audit"
	xerrors "jobboard-service/internal/pkg/errors"
	"jobboard-service/internal/pkg/jwt"
	"jobboard-service/internal/pkg/password"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef-test"

type fakeStore struct {
	mu     sync.Mutex
	byID   map[int64]*auth.Principal
	err    error
	block  chan struct{}
	hashes map[int64]string
}

func newFakeStore(principals ...*auth.Principal) *fakeStore {
	s := &fakeStore{byID: map[int64]*auth.Principal{}, hashes: map[int64]string{}}
	for _, p := range principals {
		s.byID[p.ID] = p
	}
	return s
}

func (s *fakeStore) wait() error {
	s.mu.Lock()
	block, err := s.block, s.err
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (s *fakeStore) FindByID(_ context.Context, id int64) (*auth.Principal, error) {
	if err := s.wait(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*auth.Principal, error) {
	if err := s.wait(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byID {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (s *fakeStore) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	p.PasswordHash = hash
	s.hashes[id] = hash
	return nil
}

func (s *fakeStore) setRole(id int64, role auth.Role) {
	s.mu.Lock()
	s.byID[id].Role = role
	s.mu.Unlock()
}

func (s *fakeStore) remove(id int64) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

func newPrincipal(t *testing.T, id int64, email string, role auth.Role, plaintext string) *auth.Principal {
	t.Helper()
	hash, err := password.Hash(plaintext, password.MinCost)
	require.NoError(t, err)
	return &auth.Principal{ID: id, Email: email, PasswordHash: hash, Role: role}
}

func newTestCodec(t *testing.T, now time.Time) *jwt.Codec {
	t.Helper()
	codec, err := jwt.NewCodec([]byte(testSecret), jwt.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return codec
}

func issueToken(t *testing.T, codec *jwt.Codec, id int64, role auth.Role) string {
	t.Helper()
	token, err := codec.Issue(codec.NewClaims(id, role))
	require.NoError(t, err)
	return token
}

func requireReason(t *testing.T, err error, want xerrors.Reason) *xerrors.Rejection {
	t.Helper()
	require.Error(t, err)
	rej, ok := xerrors.AsRejection(err)
	require.True(t, ok, "want rejection, got %v", err)
	require.Equal(t, want, rej.Reason)
	return rej
}

func newAudit(sink *audit.MemorySink) *audit.Logger {
	return audit.NewLogger(nil, nil, sink)
}
