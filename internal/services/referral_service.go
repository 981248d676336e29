package services

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"referral-rewards/internal/models"
	"referral-rewards/internal/utils"
)

// ReferralService owns referral codes, the referral relationship graph and
// level-bounded queries over it. Reward crediting lives in RewardService.
type ReferralService struct {
	db         *gorm.DB
	codeLength int
}

func NewReferralService(db *gorm.DB, codeLength int) *ReferralService {
	return &ReferralService{
		db:         db,
		codeLength: codeLength,
	}
}

// EnsureReferralCode returns the user's referral code, generating and
// persisting one if the user has none yet. Idempotent: once a code is set it
// is never replaced, no matter how often this is called. Collisions with
// existing codes are resolved by drawing again; concurrent callers are
// serialized by the unique index on referral_code and the conditional update.
func (s *ReferralService) EnsureReferralCode(userID uint) (string, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return "", fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	if user.ReferralCode != nil {
		return *user.ReferralCode, nil
	}

	for {
		code, err := utils.GenerateReferralCode(s.codeLength)
		if err != nil {
			return "", err
		}

		// Cheap pre-check; the unique index is the real guarantee.
		var count int64
		if err := s.db.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count > 0 {
			continue
		}

		res := s.db.Model(&models.User{}).
			Where("id = ? AND referral_code IS NULL", userID).
			Update("referral_code", code)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				// Lost the race to another signup drawing the same code.
				log.Printf("Referral code %s collided for user %d, retrying", code, userID)
				continue
			}
			return "", fmt.Errorf("failed to assign referral code: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// A concurrent call set the code first; return theirs.
			if err := s.db.First(&user, userID).Error; err != nil {
				return "", err
			}
			if user.ReferralCode == nil {
				return "", fmt.Errorf("user %d vanished while assigning referral code", userID)
			}
			return *user.ReferralCode, nil
		}

		log.Printf("Assigned referral code %s to user %d", code, userID)
		return code, nil
	}
}

// FindByReferralCode resolves a submitted code to its owner. A missing code
// returns gorm.ErrRecordNotFound; callers treat that as "continue without a
// referral link", not as a fatal error.
func (s *ReferralService) FindByReferralCode(code string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("referral_code = ?", code).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Propagate records the referral relationship for a new signup as immutable
// audit rows, one per ancestor up to models.MaxReferralDepth levels. It is
// called once, at signup, only when a referrer was resolved from a submitted
// code, and must run inside the signup transaction. It never touches any
// balance.
func (s *ReferralService) Propagate(tx *gorm.DB, newUser *models.User, referrer *models.User, sourceCode string) error {
	if referrer == nil {
		return nil
	}

	var source *string
	if sourceCode != "" {
		source = &sourceCode
	}

	ancestor := referrer
	for level := 1; level <= models.MaxReferralDepth; level++ {
		referral := models.Referral{
			ReferrerID: ancestor.ID,
			ReferredID: newUser.ID,
			Level:      level,
			Source:     source,
		}
		if err := tx.Create(&referral).Error; err != nil {
			return fmt.Errorf("failed to record level %d referral: %w", level, err)
		}

		next, err := s.parentOf(tx, ancestor)
		if err != nil {
			return err
		}
		if next == nil {
			break // chain shorter than the bound; normal termination
		}
		ancestor = next
	}

	return nil
}

// Ancestors returns the referrer chain of a user, nearest first, bounded by
// maxLevel.
func (s *ReferralService) Ancestors(userID uint, maxLevel int) ([]models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}

	ancestors := make([]models.User, 0, maxLevel)
	current := &user
	for level := 1; level <= maxLevel; level++ {
		next, err := s.parentOf(s.db, current)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		ancestors = append(ancestors, *next)
		current = next
	}

	return ancestors, nil
}

// ReferralsAtLevel returns every user exactly `level` steps below the given
// user in the referral tree: level 1 is direct referrals, level 2 their
// referrals, and so on. It recomputes from the live referred_by graph on
// every call and never reads the audit or ledger tables.
func (s *ReferralService) ReferralsAtLevel(userID uint, level int) ([]models.User, error) {
	if level < 1 {
		return []models.User{}, nil
	}

	current := []uint{userID}
	var users []models.User
	for step := 0; step < level; step++ {
		if len(current) == 0 {
			return []models.User{}, nil
		}

		users = nil
		if err := s.db.Where("referred_by_id IN ?", current).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("failed to expand referral level %d: %w", step+1, err)
		}

		current = current[:0]
		for _, u := range users {
			current = append(current, u.ID)
		}
	}

	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// CountByLevel returns level -> number of referrals for levels 1..maxLevel.
// Counts are per level, not cumulative.
func (s *ReferralService) CountByLevel(userID uint, maxLevel int) (map[int]int, error) {
	counts := make(map[int]int, maxLevel)
	for level := 1; level <= maxLevel; level++ {
		users, err := s.ReferralsAtLevel(userID, level)
		if err != nil {
			return nil, err
		}
		counts[level] = len(users)
	}
	return counts, nil
}

// GetReferralAudit returns the immutable Referral rows where the user is the
// referrer, newest first.
func (s *ReferralService) GetReferralAudit(userID uint) ([]models.Referral, error) {
	var referrals []models.Referral
	err := s.db.Where("referrer_id = ?", userID).
		Preload("Referred").
		Order("created_at DESC").
		Find(&referrals).Error
	if err != nil {
		return nil, err
	}
	return referrals, nil
}

// parentOf follows one referred_by link, returning nil at the root.
func (s *ReferralService) parentOf(tx *gorm.DB, user *models.User) (*models.User, error) {
	if user.ReferredByID == nil {
		return nil, nil
	}

	var parent models.User
	if err := tx.First(&parent, *user.ReferredByID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load referrer %d: %w", *user.ReferredByID, err)
	}
	return &parent, nil
}
