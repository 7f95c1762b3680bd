package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bicho-platform/internal/models"
)

// AccountService handles registration, login and balance lookups
type AccountService struct {
	db    *gorm.DB
	bonus *BonusService
}

// NewAccountService creates a new AccountService
func NewAccountService(db *gorm.DB, bonus *BonusService) *AccountService {
	return &AccountService{db: db, bonus: bonus}
}

// Register creates a new account and, when enabled, its signup bonus in
// the same transaction.
func (s *AccountService) Register(name, email, password string) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Balance:      decimal.Zero,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Account
		if err := tx.Where("email = ?", email).First(&existing).Error; err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}

		if _, err := s.bonus.GrantSignupBonus(tx, account.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// Authenticate verifies credentials and returns the account
func (s *AccountService) Authenticate(email, password string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &account, nil
}

// GetAccount retrieves an account by ID
func (s *AccountService) GetAccount(accountID uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// BalanceSummary is what the balance endpoint returns
type BalanceSummary struct {
	Balance      decimal.Decimal     `json:"balance"`
	BonusBalance decimal.Decimal     `json:"bonus_balance"`
	Grants       []models.BonusGrant `json:"grants"`
}

// GetBalanceSummary returns the real balance, the spendable bonus
// balance and the active grants behind it.
func (s *AccountService) GetBalanceSummary(accountID uint) (*BalanceSummary, error) {
	account, err := s.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	grants, err := s.bonus.ActiveGrants(s.db, accountID)
	if err != nil {
		return nil, err
	}

	bonusBalance := decimal.Zero
	for _, g := range grants {
		bonusBalance = bonusBalance.Add(g.RemainingAmount)
	}

	return &BalanceSummary{
		Balance:      account.Balance,
		BonusBalance: bonusBalance,
		Grants:       grants,
	}, nil
}
