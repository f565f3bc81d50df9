package core_test

import (
	"errors"
	"testing"

	"stockbook/internal/core"
)

func TestConsultant_RegisterAndLookup(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewConsultantService(pool, "Casa")

	leaderID := 1
	c, err := svc.Create(ctx, "Nova Consultora", "nova@example.com", core.RoleConsultant, &leaderID, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.HomeLocation != "Casa" {
		t.Errorf("Expected default home location Casa, got %s", c.HomeLocation)
	}
	if c.OnboardingCompleted {
		t.Error("Expected onboarding incomplete for a new consultant")
	}

	got, err := svc.GetByEmail(ctx, "nova@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != c.ID {
		t.Errorf("Expected consultant %d, got %d", c.ID, got.ID)
	}

	home, err := svc.HomeLocation(ctx, c.ID)
	if err != nil {
		t.Fatalf("HomeLocation failed: %v", err)
	}
	if home != "Casa" {
		t.Errorf("Expected home location Casa, got %s", home)
	}
}

func TestConsultant_RegisterExplicitHome(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewConsultantService(pool, "Casa")

	c, err := svc.Create(ctx, "Outra Consultora", "outra@example.com", core.RoleConsultant, nil, "Loja Centro")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.HomeLocation != "Loja Centro" {
		t.Errorf("Expected home location Loja Centro, got %s", c.HomeLocation)
	}
}

func TestConsultant_RegisterValidation(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewConsultantService(pool, "Casa")

	var validation *core.ValidationError
	if _, err := svc.Create(ctx, "", "x@example.com", core.RoleConsultant, nil, ""); !errors.As(err, &validation) {
		t.Errorf("Expected ValidationError for empty name, got %v", err)
	}
	if _, err := svc.Create(ctx, "X", "x@example.com", core.Role("ADMIN"), nil, ""); !errors.As(err, &validation) {
		t.Errorf("Expected ValidationError for unknown role, got %v", err)
	}
	// maria@example.com is seeded.
	if _, err := svc.Create(ctx, "X", "maria@example.com", core.RoleConsultant, nil, ""); !errors.As(err, &validation) {
		t.Errorf("Expected ValidationError for duplicate email, got %v", err)
	}
}

func TestConsultant_UnknownLookup(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewConsultantService(pool, "Casa")

	if _, err := svc.GetByID(ctx, 999); !errors.Is(err, core.ErrUnknownConsultant) {
		t.Errorf("Expected ErrUnknownConsultant, got %v", err)
	}
	if _, err := svc.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, core.ErrUnknownConsultant) {
		t.Errorf("Expected ErrUnknownConsultant, got %v", err)
	}
}
