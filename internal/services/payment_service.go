package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"referral-rewards/internal/models"
)

// ErrAlreadyProcessed is returned when a payment decision is attempted on a
// user whose payment_status already left pending.
var ErrAlreadyProcessed = errors.New("payment already processed")

// PaymentService owns the payment_status lifecycle. The pending->verified
// transition is the single trigger for reward crediting, guarded so it fires
// at most once per user.
type PaymentService struct {
	db      *gorm.DB
	rewards *RewardService
}

func NewPaymentService(db *gorm.DB, rewards *RewardService) *PaymentService {
	return &PaymentService{
		db:      db,
		rewards: rewards,
	}
}

// SubmitPayment records that the user claims to have paid: stamps the payment
// date and a reference for the admin to check against the mobile-money
// statement. Only meaningful while the status is still pending.
func (s *PaymentService) SubmitPayment(userID uint) (string, error) {
	reference := uuid.NewString()
	now := time.Now()

	res := s.db.Model(&models.User{}).
		Where("id = ? AND payment_status = ?", userID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_date":      now,
			"payment_reference": reference,
		})
	if res.Error != nil {
		return "", fmt.Errorf("failed to submit payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", ErrAlreadyProcessed
	}

	log.Printf("Payment submitted by user %d (ref %s)", userID, reference)
	return reference, nil
}

// VerifyPayment atomically transitions the user pending->verified and awards
// referral rewards along the ancestor chain in the same transaction. The
// conditional update is the at-most-once guard: a second call, or a
// concurrent one, finds no pending row and returns ErrAlreadyProcessed
// without touching any balance.
func (s *PaymentService) VerifyPayment(userID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		res := tx.Model(&models.User{}).
			Where("id = ? AND payment_status = ?", userID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentStatusVerified,
				"payment_date":   now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to verify payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var user models.User
			if err := tx.First(&user, userID).Error; err != nil {
				return fmt.Errorf("user %d not found: %w", userID, err)
			}
			return ErrAlreadyProcessed
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}

		return s.rewards.Award(tx, &user)
	})

	if err == nil {
		log.Printf("Payment verified for user %d", userID)
	}
	return err
}

// RejectPayment atomically transitions the user pending->rejected. No rewards
// are ever credited for a rejected payment.
func (s *PaymentService) RejectPayment(userID uint) error {
	now := time.Now()

	res := s.db.Model(&models.User{}).
		Where("id = ? AND payment_status = ?", userID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusRejected,
			"payment_date":   now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to reject payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}

	log.Printf("Payment rejected for user %d", userID)
	return nil
}

// ListByStatus returns users with the given payment status, oldest first.
func (s *PaymentService) ListByStatus(status string) ([]models.User, error) {
	var users []models.User
	err := s.db.Where("payment_status = ?", status).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
