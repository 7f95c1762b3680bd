package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bicho-platform/internal/models"
)

func TestRegisterGrantsSignupBonus(t *testing.T) {
	db := setupTestDB(t)
	bonus := NewBonusService(db, testBonusConfig())
	svc := NewAccountService(db, bonus)

	account, err := svc.Register("Maria", "maria@example.com", "s3cret!pass")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if account.PasswordHash == "s3cret!pass" {
		t.Error("password stored in plain text")
	}
	if !account.Balance.IsZero() {
		t.Errorf("expected zero starting balance, got %s", account.Balance)
	}

	summary, err := svc.GetBalanceSummary(account.ID)
	if err != nil {
		t.Fatalf("GetBalanceSummary failed: %v", err)
	}
	if !summary.BonusBalance.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected signup bonus of 10.00, got %s", summary.BonusBalance)
	}
	if len(summary.Grants) != 1 || summary.Grants[0].Type != models.BonusTypeSignup {
		t.Errorf("expected one signup grant, got %+v", summary.Grants)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	bonus := NewBonusService(db, testBonusConfig())
	svc := NewAccountService(db, bonus)

	if _, err := svc.Register("Maria", "maria@example.com", "s3cret!pass"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, err := svc.Register("Other", "maria@example.com", "other!pass")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	bonus := NewBonusService(db, testBonusConfig())
	svc := NewAccountService(db, bonus)

	created, err := svc.Register("Maria", "maria@example.com", "s3cret!pass")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	account, err := svc.Authenticate("maria@example.com", "s3cret!pass")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if account.ID != created.ID {
		t.Errorf("expected account %d, got %d", created.ID, account.ID)
	}

	if _, err := svc.Authenticate("maria@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate("nobody@example.com", "s3cret!pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
