package services

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"referral-rewards/internal/models"
)

// EarningReasonVerified is recorded on every ledger entry created by Award.
const EarningReasonVerified = "Referral verified"

// DefaultRewardAmounts seeds the reward configuration on first boot
// (Ghana Cedis per level).
var DefaultRewardAmounts = map[int]decimal.Decimal{
	1: decimal.NewFromInt(20),
	2: decimal.NewFromInt(10),
	3: decimal.NewFromInt(5),
}

// RewardService credits ancestors when a referred user's payment is verified
// and maintains the per-level reward configuration.
type RewardService struct {
	db *gorm.DB
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{db: db}
}

// Award walks the referrer chain of a freshly verified user, crediting each
// ancestor with the configured amount for its level and appending one ledger
// entry per credit. It must run inside the transaction that performed the
// pending->verified transition: that conditional transition is what makes
// crediting at-most-once. Award itself is NOT idempotent and will credit
// again if called twice for the same user.
func (s *RewardService) Award(tx *gorm.DB, verifiedUser *models.User) error {
	if verifiedUser.ReferredByID == nil {
		return nil // no referrer, nothing to credit
	}

	// Read the configuration fresh so admin changes apply to this
	// verification but never retroactively.
	amounts, err := s.rewardAmounts(tx)
	if err != nil {
		return err
	}

	ancestorID := verifiedUser.ReferredByID
	for level := 1; level <= models.MaxReferralDepth && ancestorID != nil; level++ {
		var ancestor models.User
		if err := tx.First(&ancestor, *ancestorID).Error; err != nil {
			return fmt.Errorf("failed to load level %d ancestor: %w", level, err)
		}

		amount, ok := amounts[level]
		if ok && amount.IsPositive() {
			res := tx.Model(&models.User{}).
				Where("id = ?", ancestor.ID).
				Update("earnings_balance", gorm.Expr("earnings_balance + ?", amount))
			if res.Error != nil {
				return fmt.Errorf("failed to credit user %d at level %d: %w", ancestor.ID, level, res.Error)
			}

			earning := models.ReferralEarning{
				UserID:     ancestor.ID,
				FromUserID: verifiedUser.ID,
				Amount:     amount,
				Level:      level,
				Reason:     EarningReasonVerified,
			}
			if err := tx.Create(&earning).Error; err != nil {
				return fmt.Errorf("failed to record level %d earning: %w", level, err)
			}

			log.Printf("Credited GH₵%s to user %d (level %d, from user %d)",
				amount.StringFixed(2), ancestor.ID, level, verifiedUser.ID)
		}

		ancestorID = ancestor.ReferredByID
	}

	return nil
}

// GetRewardAmounts returns the current level -> amount configuration.
// Unconfigured levels are absent from the map and treated as zero.
func (s *RewardService) GetRewardAmounts() (map[int]decimal.Decimal, error) {
	return s.rewardAmounts(s.db)
}

// SetRewardAmount upserts the reward amount for one level.
func (s *RewardService) SetRewardAmount(level int, amount decimal.Decimal) error {
	if level < 1 || level > models.MaxReferralDepth {
		return fmt.Errorf("level must be between 1 and %d", models.MaxReferralDepth)
	}
	if amount.IsNegative() {
		return fmt.Errorf("reward amount cannot be negative")
	}

	var config models.RewardConfig
	err := s.db.Where("level = ?", level).First(&config).Error
	if err == gorm.ErrRecordNotFound {
		config = models.RewardConfig{Level: level, Amount: amount}
		return s.db.Create(&config).Error
	}
	if err != nil {
		return err
	}

	return s.db.Model(&config).Updates(map[string]interface{}{
		"amount":     amount,
		"updated_at": time.Now(),
	}).Error
}

// SeedDefaults inserts the default reward amounts for levels that have no
// configuration yet. Existing rows are left untouched.
func (s *RewardService) SeedDefaults() error {
	for level := 1; level <= models.MaxReferralDepth; level++ {
		config := models.RewardConfig{Level: level, Amount: DefaultRewardAmounts[level]}
		err := s.db.Where(models.RewardConfig{Level: level}).FirstOrCreate(&config).Error
		if err != nil {
			return fmt.Errorf("failed to seed reward config for level %d: %w", level, err)
		}
	}
	return nil
}

// GetEarnings returns the ledger entries where the user is the recipient,
// newest first.
func (s *RewardService) GetEarnings(userID uint) ([]models.ReferralEarning, error) {
	var earnings []models.ReferralEarning
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&earnings).Error
	if err != nil {
		return nil, err
	}
	return earnings, nil
}

// TotalEarned sums every ledger entry for the user, paid out or not.
func (s *RewardService) TotalEarned(userID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := s.db.Model(&models.ReferralEarning{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *RewardService) rewardAmounts(tx *gorm.DB) (map[int]decimal.Decimal, error) {
	var configs []models.RewardConfig
	if err := tx.Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to load reward config: %w", err)
	}

	amounts := make(map[int]decimal.Decimal, len(configs))
	for _, c := range configs {
		amounts[c.Level] = c.Amount
	}
	return amounts, nil
}
