package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"referral-rewards/internal/models"
)

var (
	// ErrInsufficientBalance is returned when a cashout exceeds the user's
	// earnings balance or the user is not payment-verified.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBelowMinimumCashout is returned when the requested amount is under
	// the configured minimum.
	ErrBelowMinimumCashout = errors.New("amount below minimum cashout")
)

// CashoutService handles withdrawal requests against earnings balances. The
// amount is debited when the request is created; rejecting the request
// refunds it.
type CashoutService struct {
	db        *gorm.DB
	minAmount decimal.Decimal
}

func NewCashoutService(db *gorm.DB, minAmount decimal.Decimal) *CashoutService {
	return &CashoutService{
		db:        db,
		minAmount: minAmount,
	}
}

// RequestCashout debits the user's balance and creates a pending cashout
// request. The debit is a conditional SQL update so a concurrent award or
// cashout can never drive the balance negative.
func (s *CashoutService) RequestCashout(userID uint, amount decimal.Decimal, phoneNumber, recipientName string) (*models.CashoutRequest, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	if amount.LessThan(s.minAmount) {
		return nil, ErrBelowMinimumCashout
	}
	if len(phoneNumber) < 10 {
		return nil, fmt.Errorf("invalid phone number")
	}
	if len(recipientName) < 2 {
		return nil, fmt.Errorf("invalid recipient name")
	}

	var request *models.CashoutRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND payment_status = ? AND earnings_balance >= ?",
				userID, models.PaymentStatusVerified, amount).
			Updates(map[string]interface{}{
				"earnings_balance": gorm.Expr("earnings_balance - ?", amount),
				"phone_number":     phoneNumber,
				"recipient_name":   recipientName,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to debit balance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		request = &models.CashoutRequest{
			UserID:        userID,
			Reference:     uuid.NewString(),
			Amount:        amount,
			PhoneNumber:   phoneNumber,
			RecipientName: recipientName,
			Status:        models.CashoutStatusPending,
			Reason:        "User cashout request",
		}
		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("failed to create cashout request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Cashout requested: GH₵%s by user %d (ref %s)",
		amount.StringFixed(2), userID, request.Reference)
	return request, nil
}

// Approve marks a pending cashout as approved for payout.
func (s *CashoutService) Approve(cashoutID uint, adminNote string) error {
	return s.transition(cashoutID, models.CashoutStatusApproved, adminNote)
}

// Reject marks a pending cashout as rejected and refunds the debited amount.
func (s *CashoutService) Reject(cashoutID uint, adminNote string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var cashout models.CashoutRequest
		if err := tx.First(&cashout, cashoutID).Error; err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.CashoutRequest{}).
			Where("id = ? AND status = ?", cashoutID, models.CashoutStatusPending).
			Updates(map[string]interface{}{
				"status":       models.CashoutStatusRejected,
				"admin_note":   adminNote,
				"processed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		// Refund the up-front debit.
		return tx.Model(&models.User{}).
			Where("id = ?", cashout.UserID).
			Update("earnings_balance", gorm.Expr("earnings_balance + ?", cashout.Amount)).Error
	})
}

// Complete marks an approved cashout as paid out.
func (s *CashoutService) Complete(cashoutID uint) error {
	now := time.Now()

	res := s.db.Model(&models.CashoutRequest{}).
		Where("id = ? AND status = ?", cashoutID, models.CashoutStatusApproved).
		Updates(map[string]interface{}{
			"status":       models.CashoutStatusCompleted,
			"processed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// GetUserCashouts returns a user's cashout requests, newest first.
func (s *CashoutService) GetUserCashouts(userID uint) ([]models.CashoutRequest, error) {
	var cashouts []models.CashoutRequest
	err := s.db.Where("user_id = ?", userID).
		Order("requested_at DESC").
		Find(&cashouts).Error
	if err != nil {
		return nil, err
	}
	return cashouts, nil
}

// ListByStatus returns cashout requests in the given status, oldest first.
func (s *CashoutService) ListByStatus(status string) ([]models.CashoutRequest, error) {
	var cashouts []models.CashoutRequest
	err := s.db.Where("status = ?", status).
		Preload("User").
		Order("requested_at ASC").
		Find(&cashouts).Error
	if err != nil {
		return nil, err
	}
	return cashouts, nil
}

func (s *CashoutService) transition(cashoutID uint, toStatus, adminNote string) error {
	now := time.Now()

	res := s.db.Model(&models.CashoutRequest{}).
		Where("id = ? AND status = ?", cashoutID, models.CashoutStatusPending).
		Updates(map[string]interface{}{
			"status":       toStatus,
			"admin_note":   adminNote,
			"processed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}
