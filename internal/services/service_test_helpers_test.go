package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"referral-rewards/internal/models"
)

// setupTestDB opens a fresh in-memory database per test. The DSN is keyed by
// the test name so parallel tests never share state.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Referral{},
		&models.ReferralEarning{},
		&models.RewardConfig{},
		&models.CashoutRequest{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

// createUser seeds a user with an optional referrer.
func createUser(t *testing.T, db *gorm.DB, name string, referrer *models.User) *models.User {
	t.Helper()

	user := models.User{
		Email:        name + "@example.com",
		Username:     name,
		PasswordHash: "hash",
		FirstName:    name,
	}
	if referrer != nil {
		user.ReferredByID = &referrer.ID
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return &user
}

// signupWithReferrer seeds a user under a referrer and records the audit rows
// the way the signup flow does.
func signupWithReferrer(t *testing.T, db *gorm.DB, svc *ReferralService, name string, referrer *models.User, source string) *models.User {
	t.Helper()

	user := createUser(t, db, name, referrer)
	if referrer != nil {
		if err := svc.Propagate(db, user, referrer, source); err != nil {
			t.Fatalf("propagate failed for %s: %v", name, err)
		}
	}
	return user
}

// seedRewardConfig installs the level -> amount map used by most award tests.
func seedRewardConfig(t *testing.T, svc *RewardService, amounts map[int]int64) {
	t.Helper()

	for level, amount := range amounts {
		if err := svc.SetRewardAmount(level, decimal.NewFromInt(amount)); err != nil {
			t.Fatalf("failed to set reward amount for level %d: %v", level, err)
		}
	}
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("failed to reload user %d: %v", id, err)
	}
	return &user
}
