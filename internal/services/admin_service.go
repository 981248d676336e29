package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"referral-rewards/internal/models"
)

// AdminService provides the aggregate views and user moderation actions
// behind the admin endpoints.
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// DashboardStats is the overview shown on the admin dashboard.
type DashboardStats struct {
	TotalUsers     int64           `json:"total_users"`
	VerifiedUsers  int64           `json:"verified_users"`
	SuspendedUsers int64           `json:"suspended_users"`
	BannedUsers    int64           `json:"banned_users"`
	TotalPayouts   decimal.Decimal `json:"total_payouts"`
}

// PlatformStats is the wider statistics view.
type PlatformStats struct {
	TotalUsers             int64           `json:"total_users"`
	VerifiedUsers          int64           `json:"verified_users"`
	TotalReferrals         int64           `json:"total_referrals"`
	TotalEarnings          decimal.Decimal `json:"total_earnings"`
	PendingCashoutAmount   decimal.Decimal `json:"pending_cashout_amount"`
	CompletedCashoutAmount decimal.Decimal `json:"completed_cashout_amount"`
}

// GetDashboardStats collects the dashboard overview counts.
func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	var stats DashboardStats

	if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	s.db.Model(&models.User{}).Where("payment_status = ?", models.PaymentStatusVerified).Count(&stats.VerifiedUsers)
	s.db.Model(&models.User{}).Where("is_suspended = ?", true).Count(&stats.SuspendedUsers)
	s.db.Model(&models.User{}).Where("is_banned = ?", true).Count(&stats.BannedUsers)

	payouts, err := s.sumCashouts(models.CashoutStatusCompleted)
	if err != nil {
		return nil, err
	}
	stats.TotalPayouts = payouts

	return &stats, nil
}

// GetPlatformStats collects system-wide totals.
func (s *AdminService) GetPlatformStats() (*PlatformStats, error) {
	var stats PlatformStats

	if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	s.db.Model(&models.User{}).Where("payment_status = ?", models.PaymentStatusVerified).Count(&stats.VerifiedUsers)
	s.db.Model(&models.User{}).Where("referred_by_id IS NOT NULL").Count(&stats.TotalReferrals)

	row := s.db.Model(&models.ReferralEarning{}).Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&stats.TotalEarnings); err != nil {
		stats.TotalEarnings = decimal.Zero
	}

	pending, err := s.sumCashouts(models.CashoutStatusPending)
	if err != nil {
		return nil, err
	}
	stats.PendingCashoutAmount = pending

	completed, err := s.sumCashouts(models.CashoutStatusCompleted)
	if err != nil {
		return nil, err
	}
	stats.CompletedCashoutAmount = completed

	return &stats, nil
}

// GetUsers returns a page of users, optionally filtered by email/username
// substring.
func (s *AdminService) GetUsers(limit, offset int, search string) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("email LIKE ? OR username LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// SetSuspended flips the suspension flag on a user.
func (s *AdminService) SetSuspended(userID uint, suspended bool) error {
	return s.setFlag(userID, "is_suspended", suspended)
}

// SetBanned flips the ban flag on a user.
func (s *AdminService) SetBanned(userID uint, banned bool) error {
	return s.setFlag(userID, "is_banned", banned)
}

// PromoteToAdmin grants admin rights to a user.
func (s *AdminService) PromoteToAdmin(userID uint) error {
	return s.setFlag(userID, "is_admin", true)
}

func (s *AdminService) setFlag(userID uint, column string, value bool) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *AdminService) sumCashouts(status string) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := s.db.Model(&models.CashoutRequest{}).
		Where("status = ?", status).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, nil
	}
	return total, nil
}
