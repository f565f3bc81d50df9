package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConsultantService resolves the identities the stock engine acts for.
// Authentication happens upstream; this only answers who someone is and
// where their home stock lives.
type ConsultantService interface {
	// Create registers a consultant. An empty homeLocation falls back to the
	// configured default.
	Create(ctx context.Context, name, email string, role Role, leaderID *int, homeLocation string) (*Consultant, error)
	GetByID(ctx context.Context, id int) (*Consultant, error)
	GetByEmail(ctx context.Context, email string) (*Consultant, error)
	// HomeLocation is the canonical location loans are served from.
	HomeLocation(ctx context.Context, id int) (string, error)
}

type consultantService struct {
	pool        *pgxpool.Pool
	defaultHome string
}

func NewConsultantService(pool *pgxpool.Pool, defaultHome string) ConsultantService {
	return &consultantService{pool: pool, defaultHome: defaultHome}
}

func (s *consultantService) Create(ctx context.Context, name, email string, role Role, leaderID *int, homeLocation string) (*Consultant, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Detail: "must not be empty"}
	}
	if email == "" {
		return nil, &ValidationError{Field: "email", Detail: "must not be empty"}
	}
	switch role {
	case RoleLeader, RoleConsultant, RoleCustomer:
	default:
		return nil, &ValidationError{Field: "role", Detail: fmt.Sprintf("unknown role %q", role)}
	}
	if homeLocation == "" {
		homeLocation = s.defaultHome
	}

	var c Consultant
	err := s.pool.QueryRow(ctx, `
		INSERT INTO consultants (name, email, role, leader_id, home_location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+consultantColumns,
		name, email, string(role), leaderID, homeLocation,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Role, &c.LeaderID, &c.HomeLocation,
		&c.OnboardingCompleted, &c.CreatedAt)
	if isUniqueViolation(err) {
		return nil, &ValidationError{Field: "email", Detail: fmt.Sprintf("%s is already registered", email)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create consultant: %w", err)
	}
	return &c, nil
}

const consultantColumns = "id, name, email, role, leader_id, home_location, onboarding_completed, created_at"

func (s *consultantService) GetByID(ctx context.Context, id int) (*Consultant, error) {
	return s.getOne(ctx, "id = $1", id)
}

func (s *consultantService) GetByEmail(ctx context.Context, email string) (*Consultant, error) {
	return s.getOne(ctx, "email = $1", email)
}

func (s *consultantService) getOne(ctx context.Context, where string, arg any) (*Consultant, error) {
	var c Consultant
	err := s.pool.QueryRow(ctx,
		"SELECT "+consultantColumns+" FROM consultants WHERE "+where, arg,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Role, &c.LeaderID, &c.HomeLocation,
		&c.OnboardingCompleted, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownConsultant, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query consultant: %w", err)
	}
	return &c, nil
}

func (s *consultantService) HomeLocation(ctx context.Context, id int) (string, error) {
	var home string
	err := s.pool.QueryRow(ctx,
		"SELECT home_location FROM consultants WHERE id = $1", id,
	).Scan(&home)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: id %d", ErrUnknownConsultant, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query home location: %w", err)
	}
	return home, nil
}
