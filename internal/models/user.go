package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status values for User.PaymentStatus.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusRejected = "rejected"
)

// User represents a member of the referral program
type User struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Email         string  `gorm:"uniqueIndex;size:150;not null" json:"email"`
	Username      string  `gorm:"uniqueIndex;size:150;not null" json:"username"`
	PasswordHash  string  `gorm:"size:150;not null" json:"-"`
	FirstName     string  `gorm:"size:150" json:"first_name"`
	PhoneNumber   *string `gorm:"size:20" json:"phone_number,omitempty"`
	RecipientName *string `gorm:"size:150" json:"recipient_name,omitempty"`

	// ReferralCode is assigned once and never changes. ReferredByID is set
	// at signup and is immutable afterwards.
	ReferralCode *string `gorm:"uniqueIndex;size:32" json:"referral_code,omitempty"`
	ReferredByID *uint   `gorm:"index" json:"referred_by_id,omitempty"`
	ReferredBy   *User   `gorm:"foreignKey:ReferredByID" json:"referred_by,omitempty"`

	// Earnings balance in Ghana Cedis. Mutated only by reward crediting
	// and the cashout flow.
	EarningsBalance decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"earnings_balance"`

	// pending, verified or rejected
	PaymentStatus    string     `gorm:"size:20;default:pending;index" json:"payment_status"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	PaymentReference *string    `gorm:"size:64" json:"payment_reference,omitempty"`

	IsAdmin     bool `gorm:"default:false" json:"is_admin"`
	IsSuspended bool `gorm:"default:false" json:"is_suspended"`
	IsBanned    bool `gorm:"default:false" json:"is_banned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
