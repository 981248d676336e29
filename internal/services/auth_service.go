package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"referral-rewards/internal/models"
)

// ErrInvalidCredentials is returned for a failed login, without revealing
// which part was wrong.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// SignUpRequest carries the signup form fields.
type SignUpRequest struct {
	Email        string
	Username     string
	Mobile       string
	Password     string
	ReferralCode string
}

// SignUpResult reports what happened to the submitted referral code alongside
// the created user.
type SignUpResult struct {
	User *models.User
	// ReferralApplied is false when no code was submitted or the submitted
	// code did not resolve to any user; signup proceeds either way.
	ReferralApplied bool
}

// AuthService handles signup and login.
type AuthService struct {
	db        *gorm.DB
	referrals *ReferralService
	// adminEmail marks the bootstrap administrator account.
	adminEmail string
}

func NewAuthService(db *gorm.DB, referrals *ReferralService, adminEmail string) *AuthService {
	return &AuthService{
		db:         db,
		referrals:  referrals,
		adminEmail: adminEmail,
	}
}

// SignUp validates the form, creates the user, assigns a referral code and,
// when the submitted code resolved to a referrer, records the bounded-depth
// referral audit rows — all in one transaction. A code that resolves to
// nobody is a warning for the caller, never a signup failure. No reward is
// credited here; that happens at payment verification.
func (s *AuthService) SignUp(req SignUpRequest) (*SignUpResult, error) {
	if err := validateSignUp(req); err != nil {
		return nil, err
	}

	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("email already exists")
	}
	if err := s.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("username already exists")
	}

	// Resolve the referrer before creating anything. A missing code is not
	// fatal: the account is created without a referral link.
	var referrer *models.User
	if req.ReferralCode != "" {
		found, err := s.referrals.FindByReferralCode(req.ReferralCode)
		if err == nil {
			referrer = found
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to resolve referral code: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.Username,
		PhoneNumber:  &req.Mobile,
	}

	// Bootstrap administrator: configured by email, replacing any notion of
	// credentials baked into the source.
	if s.adminEmail != "" && strings.EqualFold(req.Email, s.adminEmail) {
		user.IsAdmin = true
		user.PaymentStatus = models.PaymentStatusVerified
	} else if referrer != nil {
		user.ReferredByID = &referrer.ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if user.ReferredByID != nil {
			if err := s.referrals.Propagate(tx, &user, referrer, req.ReferralCode); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Assign the referral code outside the signup transaction: the
	// uniqueness-retry loop commits per attempt against the live table.
	if _, err := s.referrals.EnsureReferralCode(user.ID); err != nil {
		log.Printf("Warning: failed to assign referral code to user %d: %v", user.ID, err)
	}

	var created models.User
	if err := s.db.First(&created, user.ID).Error; err != nil {
		return nil, err
	}

	log.Printf("New user created: %s (ID: %d, referred: %t)",
		created.Email, created.ID, created.ReferredByID != nil)

	return &SignUpResult{
		User:            &created,
		ReferralApplied: created.ReferredByID != nil,
	}, nil
}

// Login verifies the username/password pair and returns the user.
func (s *AuthService) Login(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsBanned {
		return nil, fmt.Errorf("account is banned")
	}

	log.Printf("User logged in: %s (ID: %d)", user.Username, user.ID)
	return &user, nil
}

func validateSignUp(req SignUpRequest) error {
	if len(req.Email) < 4 || !strings.Contains(req.Email, "@") {
		return fmt.Errorf("enter a valid email address")
	}
	if len(req.Username) < 5 {
		return fmt.Errorf("username must be at least 5 characters")
	}
	if !unicode.IsUpper(rune(req.Username[0])) {
		return fmt.Errorf("username must start with a capital letter")
	}
	if !unicode.IsDigit(rune(req.Username[len(req.Username)-1])) {
		return fmt.Errorf("username must end with a number")
	}
	if !strings.HasPrefix(req.Mobile, "+233") {
		return fmt.Errorf("mobile number must be a valid Ghana number starting with +233")
	}
	if len(req.Mobile) < 13 {
		return fmt.Errorf("mobile number must have at least 10 digits after +233")
	}
	for _, r := range req.Mobile[4:] {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("mobile number must contain only digits after the country code")
		}
	}
	if len(req.Password) < 7 {
		return fmt.Errorf("password must be at least 7 characters")
	}
	return nil
}
