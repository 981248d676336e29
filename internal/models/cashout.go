package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cashout status values for CashoutRequest.Status.
const (
	CashoutStatusPending   = "pending"
	CashoutStatusApproved  = "approved"
	CashoutStatusRejected  = "rejected"
	CashoutStatusCompleted = "completed"
)

// CashoutRequest tracks a withdrawal request against a user's earnings balance.
// The requested amount is debited from the balance up front; a rejection
// refunds it.
type CashoutRequest struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	User          *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Reference     string          `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PhoneNumber   string          `gorm:"size:20;not null" json:"phone_number"`
	RecipientName string          `gorm:"size:150;not null" json:"recipient_name"`
	Status        string          `gorm:"size:20;default:pending;index" json:"status"`
	Reason        string          `gorm:"size:200" json:"reason"`
	AdminNote     string          `gorm:"size:500" json:"admin_note"`
	RequestedAt   time.Time       `gorm:"autoCreateTime" json:"requested_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}

func (CashoutRequest) TableName() string {
	return "cashout_requests"
}
