package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxReferralDepth bounds every ancestor/descendant walk in the system.
const MaxReferralDepth = 3

// Referral is an immutable audit record of one referrer/referred pair at a
// specific ancestor distance. Rows are created at signup and never updated.
type Referral struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReferrerID uint      `gorm:"not null;index" json:"referrer_id"`
	Referrer   *User     `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredID uint      `gorm:"not null;index" json:"referred_id"`
	Referred   *User     `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
	Level      int       `gorm:"not null" json:"level"` // 1, 2, 3
	Source     *string   `gorm:"size:64" json:"source,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Referral) TableName() string {
	return "referrals"
}

// ReferralEarning is one entry in the append-only earnings ledger, created
// when a referred user's payment is verified.
type ReferralEarning struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"` // recipient of the reward
	User       *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	FromUserID uint            `gorm:"not null;index" json:"from_user_id"` // the verified user who triggered it
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Level      int             `gorm:"not null" json:"level"`
	Reason     string          `gorm:"size:200" json:"reason"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (ReferralEarning) TableName() string {
	return "referral_earnings"
}

// RewardConfig maps an ancestor level to its reward amount in Ghana Cedis.
// Admin-tunable; read fresh on every award so changes only apply to future
// verifications.
type RewardConfig struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Level     int             `gorm:"uniqueIndex;not null" json:"level"` // 1, 2, 3
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (RewardConfig) TableName() string {
	return "reward_configs"
}
