package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"referral-rewards/internal/models"
)

func TestAwardNoReferrerIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	rewards := NewRewardService(db)
	seedRewardConfig(t, rewards, map[int]int64{1: 20, 2: 10, 3: 5})

	solo := createUser(t, db, "Solo99", nil)

	if err := rewards.Award(db, solo); err != nil {
		t.Fatalf("Award failed: %v", err)
	}

	var ledgerCount int64
	db.Model(&models.ReferralEarning{}).Count(&ledgerCount)
	if ledgerCount != 0 {
		t.Errorf("expected empty ledger, got %d entries", ledgerCount)
	}

	reloaded := reloadUser(t, db, solo.ID)
	if !reloaded.EarningsBalance.IsZero() {
		t.Errorf("expected zero balance, got %s", reloaded.EarningsBalance)
	}
}

// Verifying B (referred by root) pays root 20 at level 1; then verifying C
// (referred by B) pays B 20 and root 10.
func TestAwardCreditsAncestorChain(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, 6)
	rewards := NewRewardService(db)
	seedRewardConfig(t, rewards, map[int]int64{1: 20, 2: 10, 3: 5})

	root := signupWithReferrer(t, db, referrals, "Root0", nil, "")
	b := signupWithReferrer(t, db, referrals, "UserB1", root, "ROOT")

	if err := rewards.Award(db, b); err != nil {
		t.Fatalf("Award(B) failed: %v", err)
	}

	if got := reloadUser(t, db, root.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("root balance after B = %s, want 20", got)
	}

	var entries []models.ReferralEarning
	db.Where("user_id = ?", root.ID).Find(&entries)
	if len(entries) != 1 {
		t.Fatalf("root has %d ledger entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.FromUserID != b.ID || entry.Level != 1 || !entry.Amount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("unexpected ledger entry: from=%d level=%d amount=%s",
			entry.FromUserID, entry.Level, entry.Amount)
	}
	if entry.Reason != EarningReasonVerified {
		t.Errorf("reason = %q, want %q", entry.Reason, EarningReasonVerified)
	}

	c := signupWithReferrer(t, db, referrals, "UserC2", b, "BCODE")
	if err := rewards.Award(db, c); err != nil {
		t.Fatalf("Award(C) failed: %v", err)
	}

	if got := reloadUser(t, db, b.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("B balance after C = %s, want 20", got)
	}
	if got := reloadUser(t, db, root.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("root balance after C = %s, want 30", got)
	}

	var ledgerCount int64
	db.Model(&models.ReferralEarning{}).Where("from_user_id = ?", c.ID).Count(&ledgerCount)
	if ledgerCount != 2 {
		t.Errorf("C's verification created %d ledger entries, want 2", ledgerCount)
	}
}

func TestAwardStopsAtDepthThree(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, 6)
	rewards := NewRewardService(db)
	seedRewardConfig(t, rewards, map[int]int64{1: 20, 2: 10, 3: 5})

	r0 := signupWithReferrer(t, db, referrals, "Root0", nil, "")
	r1 := signupWithReferrer(t, db, referrals, "User1", r0, "C0")
	r2 := signupWithReferrer(t, db, referrals, "User2", r1, "C1")
	r3 := signupWithReferrer(t, db, referrals, "User3", r2, "C2")
	r4 := signupWithReferrer(t, db, referrals, "User4", r3, "C3")

	if err := rewards.Award(db, r4); err != nil {
		t.Fatalf("Award failed: %v", err)
	}

	// R0 is four levels above R4 and must receive nothing.
	if got := reloadUser(t, db, r0.ID).EarningsBalance; !got.IsZero() {
		t.Errorf("R0 balance = %s, want 0", got)
	}
	if got := reloadUser(t, db, r3.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("R3 balance = %s, want 20", got)
	}
	if got := reloadUser(t, db, r2.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("R2 balance = %s, want 10", got)
	}
	if got := reloadUser(t, db, r1.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("R1 balance = %s, want 5", got)
	}
}

// Award on its own is not idempotent: calling it twice for the same user
// doubles balances and ledger entries. At-most-once crediting is the
// responsibility of the payment_status transition guard, exercised in the
// payment service tests.
func TestAwardAloneIsNotIdempotent(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, 6)
	rewards := NewRewardService(db)
	seedRewardConfig(t, rewards, map[int]int64{1: 20})

	root := signupWithReferrer(t, db, referrals, "Root0", nil, "")
	b := signupWithReferrer(t, db, referrals, "UserB1", root, "ROOT")

	if err := rewards.Award(db, b); err != nil {
		t.Fatalf("first Award failed: %v", err)
	}
	if err := rewards.Award(db, b); err != nil {
		t.Fatalf("second Award failed: %v", err)
	}

	if got := reloadUser(t, db, root.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(40)) {
		t.Errorf("root balance after double award = %s, want 40", got)
	}

	var ledgerCount int64
	db.Model(&models.ReferralEarning{}).Where("user_id = ?", root.ID).Count(&ledgerCount)
	if ledgerCount != 2 {
		t.Errorf("ledger has %d entries after double award, want 2", ledgerCount)
	}
}

func TestAwardSkipsUnconfiguredLevels(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, 6)
	rewards := NewRewardService(db)
	// Only level 2 pays; levels 1 and 3 default to zero.
	seedRewardConfig(t, rewards, map[int]int64{2: 10})

	r0 := signupWithReferrer(t, db, referrals, "Root0", nil, "")
	r1 := signupWithReferrer(t, db, referrals, "User1", r0, "C0")
	r2 := signupWithReferrer(t, db, referrals, "User2", r1, "C1")

	if err := rewards.Award(db, r2); err != nil {
		t.Fatalf("Award failed: %v", err)
	}

	if got := reloadUser(t, db, r1.ID).EarningsBalance; !got.IsZero() {
		t.Errorf("level 1 ancestor credited %s with no level 1 config", got)
	}
	if got := reloadUser(t, db, r0.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("level 2 ancestor balance = %s, want 10", got)
	}

	// No zero-amount ledger entries.
	var ledgerCount int64
	db.Model(&models.ReferralEarning{}).Count(&ledgerCount)
	if ledgerCount != 1 {
		t.Errorf("ledger has %d entries, want 1", ledgerCount)
	}
}

// Config changes only affect future verifications, never past credits.
func TestAwardReadsConfigFresh(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, 6)
	rewards := NewRewardService(db)
	seedRewardConfig(t, rewards, map[int]int64{1: 20})

	root := signupWithReferrer(t, db, referrals, "Root0", nil, "")
	b := signupWithReferrer(t, db, referrals, "UserB1", root, "ROOT")
	c := signupWithReferrer(t, db, referrals, "UserC2", root, "ROOT")

	if err := rewards.Award(db, b); err != nil {
		t.Fatalf("Award(B) failed: %v", err)
	}

	if err := rewards.SetRewardAmount(1, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("SetRewardAmount failed: %v", err)
	}

	if err := rewards.Award(db, c); err != nil {
		t.Fatalf("Award(C) failed: %v", err)
	}

	// 20 for B under the old config, 50 for C under the new one.
	if got := reloadUser(t, db, root.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("root balance = %s, want 70", got)
	}

	var first models.ReferralEarning
	db.Where("from_user_id = ?", b.ID).First(&first)
	if !first.Amount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("earlier ledger entry rewritten to %s", first.Amount)
	}
}

func TestSetRewardAmountValidation(t *testing.T) {
	db := setupTestDB(t)
	rewards := NewRewardService(db)

	if err := rewards.SetRewardAmount(0, decimal.NewFromInt(5)); err == nil {
		t.Error("expected error for level 0")
	}
	if err := rewards.SetRewardAmount(4, decimal.NewFromInt(5)); err == nil {
		t.Error("expected error for level above bound")
	}
	if err := rewards.SetRewardAmount(1, decimal.NewFromInt(-5)); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestSeedDefaultsKeepsExistingConfig(t *testing.T) {
	db := setupTestDB(t)
	rewards := NewRewardService(db)

	if err := rewards.SetRewardAmount(1, decimal.NewFromInt(99)); err != nil {
		t.Fatalf("SetRewardAmount failed: %v", err)
	}

	if err := rewards.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}

	amounts, err := rewards.GetRewardAmounts()
	if err != nil {
		t.Fatalf("GetRewardAmounts failed: %v", err)
	}

	if !amounts[1].Equal(decimal.NewFromInt(99)) {
		t.Errorf("level 1 amount overwritten: %s", amounts[1])
	}
	if !amounts[2].Equal(DefaultRewardAmounts[2]) {
		t.Errorf("level 2 amount = %s, want default %s", amounts[2], DefaultRewardAmounts[2])
	}
	if !amounts[3].Equal(DefaultRewardAmounts[3]) {
		t.Errorf("level 3 amount = %s, want default %s", amounts[3], DefaultRewardAmounts[3])
	}
}
