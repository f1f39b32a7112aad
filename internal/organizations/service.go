// Package organizations answers membership and administrator questions for
// the attendance components.
package organizations

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

// Slug must be lowercase alphanumeric and hyphens only, 2–64 chars.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// Store persists organizations and their members.
type Store interface {
	CreateOrganization(ctx context.Context, org *models.Organization) error
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	AddMember(ctx context.Context, orgID, userID uuid.UUID, role string) error
	GetMemberRole(ctx context.Context, orgID, userID uuid.UUID) (string, error)
	ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrganizationUser, error)
}

// Service manages organizations and resolves administrator rights.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates an organizations service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// IsOrgAdmin reports whether userID is an owner or admin of orgID.
func (s *Service) IsOrgAdmin(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	role, err := s.store.GetMemberRole(ctx, orgID, userID)
	if err != nil {
		return false, err
	}
	return models.IsAdminRole(role), nil
}

// Create creates an organization and makes ownerID its owner.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, name, slug string) (*models.Organization, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugRegex.MatchString(slug) {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "slug must be 2–64 chars, lowercase letters, numbers, hyphens only", nil)
	}
	name = strings.TrimSpace(name)
	if len(name) < 1 || len(name) > 255 {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "name must be 1–255 characters", nil)
	}
	org := &models.Organization{Name: name, Slug: slug}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}
	if err := s.store.AddMember(ctx, org.ID, ownerID, models.OrgRoleOwner); err != nil {
		return nil, err
	}
	s.logger.Info("organization created", zap.String("organization_id", org.ID.String()), zap.String("slug", slug))
	return org, nil
}

// AddMember sets userID's role in orgID. Only administrators may do this,
// and only owners may grant ownership.
func (s *Service) AddMember(ctx context.Context, orgID, actorID, userID uuid.UUID, role string) error {
	switch role {
	case models.OrgRoleOwner, models.OrgRoleAdmin, models.OrgRoleMember:
	default:
		return apperr.Wrap(apperr.CodeInvalidArgument, "role must be owner, admin or member", nil)
	}
	actorRole, err := s.store.GetMemberRole(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	if !models.IsAdminRole(actorRole) || (role == models.OrgRoleOwner && actorRole != models.OrgRoleOwner) {
		return apperr.ErrForbidden
	}
	return s.store.AddMember(ctx, orgID, userID, role)
}

// ListForUser returns the organizations userID belongs to.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	return s.store.ListOrganizationsForUser(ctx, userID)
}

// ListMembers returns members of orgID; the caller must be an administrator.
func (s *Service) ListMembers(ctx context.Context, orgID, actorID uuid.UUID) ([]*models.OrganizationUser, error) {
	ok, err := s.IsOrgAdmin(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrForbidden
	}
	return s.store.ListMembers(ctx, orgID)
}
