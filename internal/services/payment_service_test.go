package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"referral-rewards/internal/models"
)

func TestVerifyPaymentCreditsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, 6)
	rewards := NewRewardService(db)
	payments := NewPaymentService(db, rewards)
	seedRewardConfig(t, rewards, map[int]int64{1: 20, 2: 10, 3: 5})

	root := signupWithReferrer(t, db, referrals, "Root0", nil, "")
	b := signupWithReferrer(t, db, referrals, "UserB1", root, "ROOT")

	if err := payments.VerifyPayment(b.ID); err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}

	if got := reloadUser(t, db, b.ID).PaymentStatus; got != models.PaymentStatusVerified {
		t.Errorf("payment status = %q, want verified", got)
	}
	if got := reloadUser(t, db, root.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("root balance = %s, want 20", got)
	}

	// The second verification attempt must be rejected by the status guard
	// and must not credit anything.
	err := payments.VerifyPayment(b.ID)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second VerifyPayment error = %v, want ErrAlreadyProcessed", err)
	}

	if got := reloadUser(t, db, root.ID).EarningsBalance; !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("root balance after repeat verify = %s, want 20", got)
	}

	var ledgerCount int64
	db.Model(&models.ReferralEarning{}).Count(&ledgerCount)
	if ledgerCount != 1 {
		t.Errorf("ledger has %d entries, want 1", ledgerCount)
	}
}

func TestVerifyPaymentNoReferrer(t *testing.T) {
	db := setupTestDB(t)
	rewards := NewRewardService(db)
	payments := NewPaymentService(db, rewards)
	seedRewardConfig(t, rewards, map[int]int64{1: 20})

	solo := createUser(t, db, "Solo99", nil)

	if err := payments.VerifyPayment(solo.ID); err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}

	if got := reloadUser(t, db, solo.ID).PaymentStatus; got != models.PaymentStatusVerified {
		t.Errorf("payment status = %q, want verified", got)
	}

	var ledgerCount int64
	db.Model(&models.ReferralEarning{}).Count(&ledgerCount)
	if ledgerCount != 0 {
		t.Errorf("ledger has %d entries, want 0", ledgerCount)
	}
}

func TestRejectPaymentBlocksLaterVerification(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, 6)
	rewards := NewRewardService(db)
	payments := NewPaymentService(db, rewards)
	seedRewardConfig(t, rewards, map[int]int64{1: 20})

	root := signupWithReferrer(t, db, referrals, "Root0", nil, "")
	b := signupWithReferrer(t, db, referrals, "UserB1", root, "ROOT")

	if err := payments.RejectPayment(b.ID); err != nil {
		t.Fatalf("RejectPayment failed: %v", err)
	}
	if got := reloadUser(t, db, b.ID).PaymentStatus; got != models.PaymentStatusRejected {
		t.Errorf("payment status = %q, want rejected", got)
	}

	// Rejection is terminal; neither decision can be applied again.
	if err := payments.VerifyPayment(b.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("VerifyPayment after reject = %v, want ErrAlreadyProcessed", err)
	}
	if err := payments.RejectPayment(b.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("RejectPayment after reject = %v, want ErrAlreadyProcessed", err)
	}

	if got := reloadUser(t, db, root.ID).EarningsBalance; !got.IsZero() {
		t.Errorf("root credited %s for a rejected payment", got)
	}
}

func TestSubmitPayment(t *testing.T) {
	db := setupTestDB(t)
	rewards := NewRewardService(db)
	payments := NewPaymentService(db, rewards)

	user := createUser(t, db, "Payer55", nil)

	reference, err := payments.SubmitPayment(user.ID)
	if err != nil {
		t.Fatalf("SubmitPayment failed: %v", err)
	}
	if reference == "" {
		t.Error("expected non-empty payment reference")
	}

	reloaded := reloadUser(t, db, user.ID)
	if reloaded.PaymentDate == nil {
		t.Error("payment date not stamped")
	}
	if reloaded.PaymentReference == nil || *reloaded.PaymentReference != reference {
		t.Error("payment reference not persisted")
	}

	// After verification the submit endpoint reports already processed.
	if err := payments.VerifyPayment(user.ID); err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}
	if _, err := payments.SubmitPayment(user.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("SubmitPayment after verify = %v, want ErrAlreadyProcessed", err)
	}
}

func TestListByStatus(t *testing.T) {
	db := setupTestDB(t)
	rewards := NewRewardService(db)
	payments := NewPaymentService(db, rewards)

	a := createUser(t, db, "Alpha1", nil)
	createUser(t, db, "Beta2", nil)

	if err := payments.VerifyPayment(a.ID); err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}

	pending, err := payments.ListByStatus(models.PaymentStatusPending)
	if err != nil {
		t.Fatalf("ListByStatus(pending) failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending count = %d, want 1", len(pending))
	}

	verified, err := payments.ListByStatus(models.PaymentStatusVerified)
	if err != nil {
		t.Fatalf("ListByStatus(verified) failed: %v", err)
	}
	if len(verified) != 1 {
		t.Errorf("verified count = %d, want 1", len(verified))
	}
}
