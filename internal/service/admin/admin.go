// internal/service/admin/admin.go
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/pkg/audit"
	xerrors "jobboard-service/internal/pkg/errors"
	"jobboard-service/internal/pkg/password"
	authsvc "jobboard-service/internal/service/auth"

	"go.uber.org/zap"
)

// UserStore is the write side of the user store used for provisioning.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*auth.Principal, error)
	Create(ctx context.Context, p *auth.Principal) error
	Delete(ctx context.Context, id int64) error
	UpdateRole(ctx context.Context, id int64, role auth.Role) error
}

// AdminService manages accounts. Callers have already passed the guard with
// RoleAdmin; the service still refuses self-targeted mutations.
type AdminService struct {
	store      UserStore
	guard      *authsvc.Guard
	audit      *audit.Logger
	logger     *zap.Logger
	bcryptCost int
}

func NewAdminService(store UserStore, guard *authsvc.Guard, auditLogger *audit.Logger, logger *zap.Logger, bcryptCost int) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		store:      store,
		guard:      guard,
		audit:      auditLogger,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// CreateUser provisions an account with the requested role.
func (s *AdminService) CreateUser(ctx context.Context, actor *auth.Principal, req *auth.CreateUserRequest) (*auth.Principal, error) {
	role, ok := auth.ParseRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", xerrors.ErrInvalidInput, req.Role)
	}

	p, err := s.create(ctx, req.Email, req.Password, role, req.CompanyID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EventUserCreated, actorKey(actor), map[string]string{
		"target_id": strconv.FormatInt(p.ID, 10),
		"role":      string(p.Role),
	})
	s.logger.Info("user created",
		zap.Int64("user_id", p.ID),
		zap.String("role", string(p.Role)),
		zap.String("created_by", actorKey(actor)),
	)
	return p, nil
}

// DeleteUser removes the account with id. An admin cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := s.guard.RefuseSelf(ctx, actor, id, "delete_user"); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.audit.Record(ctx, audit.EventUserDeleted, actorKey(actor), map[string]string{
		"target_id": strconv.FormatInt(id, 10),
	})
	return nil
}

// ChangeRole sets the role of the account with id. An admin cannot change
// their own role.
func (s *AdminService) ChangeRole(ctx context.Context, actor *auth.Principal, id int64, roleName string) error {
	role, ok := auth.ParseRole(roleName)
	if !ok {
		return fmt.Errorf("%w: unknown role %q", xerrors.ErrInvalidInput, roleName)
	}
	if err := s.guard.RefuseSelf(ctx, actor, id, "change_role"); err != nil {
		return err
	}
	if err := s.store.UpdateRole(ctx, id, role); err != nil {
		return fmt.Errorf("failed to change role: %w", err)
	}

	s.audit.Record(ctx, audit.EventRoleChanged, actorKey(actor), map[string]string{
		"target_id": strconv.FormatInt(id, 10),
		"role":      string(role),
	})
	return nil
}

// EnsureAdmin creates the first ADMIN account if email is not registered yet.
// An empty email disables the bootstrap.
func (s *AdminService) EnsureAdmin(ctx context.Context, email, plaintext string) error {
	if email == "" {
		return nil
	}

	existing, err := s.store.FindByEmail(ctx, auth.NormalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role != auth.RoleAdmin {
			s.logger.Warn("bootstrap admin email belongs to a non-admin account",
				zap.Int64("user_id", existing.ID),
				zap.String("role", string(existing.Role)),
			)
		} else {
			s.logger.Info("bootstrap admin already exists", zap.Int64("user_id", existing.ID))
		}
		return nil
	case !errors.Is(err, xerrors.ErrNotFound):
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	p, err := s.create(ctx, email, plaintext, auth.RoleAdmin, nil)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	s.audit.Record(ctx, audit.EventUserCreated, "system", map[string]string{
		"target_id": strconv.FormatInt(p.ID, 10),
		"role":      string(p.Role),
		"source":    "bootstrap",
	})
	s.logger.Info("bootstrap admin created", zap.Int64("user_id", p.ID))
	return nil
}

func (s *AdminService) create(ctx context.Context, email, plaintext string, role auth.Role, companyID *int64) (*auth.Principal, error) {
	email = auth.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", xerrors.ErrInvalidInput)
	}

	hash, err := password.Hash(plaintext, s.bcryptCost)
	if err != nil {
		if errors.Is(err, password.ErrEmptyPassword) {
			return nil, fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
		}
		return nil, err
	}

	p := &auth.Principal{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CompanyID:    companyID,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return p, nil
}

func actorKey(p *auth.Principal) string {
	if p == nil {
		return "system"
	}
	return "user:" + strconv.FormatInt(p.ID, 10)
}
