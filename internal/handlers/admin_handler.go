package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"referral-rewards/internal/models"
	"referral-rewards/internal/services"
)

type AdminHandler struct {
	db              *gorm.DB
	adminService    *services.AdminService
	paymentService  *services.PaymentService
	cashoutService  *services.CashoutService
	rewardService   *services.RewardService
	referralService *services.ReferralService
}

func NewAdminHandler(
	db *gorm.DB,
	adminService *services.AdminService,
	paymentService *services.PaymentService,
	cashoutService *services.CashoutService,
	rewardService *services.RewardService,
	referralService *services.ReferralService,
) *AdminHandler {
	return &AdminHandler{
		db:              db,
		adminService:    adminService,
		paymentService:  paymentService,
		cashoutService:  cashoutService,
		rewardService:   rewardService,
		referralService: referralService,
	}
}

// AdminMiddleware checks the admin flag against the database so demotions
// take effect before the token expires
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		var user models.User
		if err := h.db.First(&user, userID.(uint)).Error; err != nil || !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetDashboard returns the admin dashboard overview
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	pendingCashouts, err := h.cashoutService.ListByStatus(models.CashoutStatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cashouts"})
		return
	}

	rewards, err := h.rewardService.GetRewardAmounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reward config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"stats":            stats,
			"pending_cashouts": pendingCashouts,
			"reward_config":    rewards,
		},
	})
}

// GetStatistics returns system-wide statistics
func (h *AdminHandler) GetStatistics(c *gin.Context) {
	stats, err := h.adminService.GetPlatformStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetUsers returns a page of users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	search := c.Query("search")

	users, total, err := h.adminService.GetUsers(limit, offset, search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"total":   total,
	})
}

// GetUserDetail returns one user with their referral tree and ledger
func (h *AdminHandler) GetUserDetail(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	tree := make(map[int][]models.User, models.MaxReferralDepth)
	for level := 1; level <= models.MaxReferralDepth; level++ {
		referrals, err := h.referralService.ReferralsAtLevel(userID, level)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load referral tree"})
			return
		}
		tree[level] = referrals
	}

	earnings, err := h.rewardService.GetEarnings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load earnings"})
		return
	}

	totalEarned, err := h.rewardService.TotalEarned(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load earnings"})
		return
	}

	cashouts, err := h.cashoutService.GetUserCashouts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cashouts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user":          user,
			"referral_tree": tree,
			"earnings":      earnings,
			"total_earned":  totalEarned,
			"cashouts":      cashouts,
		},
	})
}

// RestrictUser applies a suspend/unsuspend/ban/unban action
func (h *AdminHandler) RestrictUser(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var actionErr error
	switch req.Action {
	case "suspend":
		actionErr = h.adminService.SetSuspended(userID, true)
	case "unsuspend":
		actionErr = h.adminService.SetSuspended(userID, false)
	case "ban":
		actionErr = h.adminService.SetBanned(userID, true)
	case "unban":
		actionErr = h.adminService.SetBanned(userID, false)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
		return
	}

	if actionErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": actionErr.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User " + req.Action + " applied",
	})
}

// PromoteToAdmin grants admin rights to a user
func (h *AdminHandler) PromoteToAdmin(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	if err := h.adminService.PromoteToAdmin(userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User promoted to admin",
	})
}

// GetPendingPayments lists users awaiting payment verification
func (h *AdminHandler) GetPendingPayments(c *gin.Context) {
	pending, err := h.paymentService.ListByStatus(models.PaymentStatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pending payments"})
		return
	}

	verified, err := h.paymentService.ListByStatus(models.PaymentStatusVerified)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load verified users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"pending":  pending,
			"verified": verified,
		},
	})
}

// VerifyPayment approves a user's payment and triggers referral rewards
func (h *AdminHandler) VerifyPayment(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	if err := h.paymentService.VerifyPayment(userID); err != nil {
		if errors.Is(err, services.ErrAlreadyProcessed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Payment already processed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verified, referral rewards awarded",
	})
}

// RejectPayment rejects a user's payment
func (h *AdminHandler) RejectPayment(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	if err := h.paymentService.RejectPayment(userID); err != nil {
		if errors.Is(err, services.ErrAlreadyProcessed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Payment already processed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment rejected",
	})
}

// GetCashouts lists cashout requests by status (default pending)
func (h *AdminHandler) GetCashouts(c *gin.Context) {
	status := c.DefaultQuery("status", models.CashoutStatusPending)

	cashouts, err := h.cashoutService.ListByStatus(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cashouts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cashouts,
	})
}

// ApproveCashout approves a pending cashout request
func (h *AdminHandler) ApproveCashout(c *gin.Context) {
	h.processCashout(c, func(id uint, note string) error {
		return h.cashoutService.Approve(id, note)
	})
}

// RejectCashout rejects a pending cashout request and refunds the amount
func (h *AdminHandler) RejectCashout(c *gin.Context) {
	h.processCashout(c, func(id uint, note string) error {
		return h.cashoutService.Reject(id, note)
	})
}

// CompleteCashout marks an approved cashout as paid
func (h *AdminHandler) CompleteCashout(c *gin.Context) {
	h.processCashout(c, func(id uint, _ string) error {
		return h.cashoutService.Complete(id)
	})
}

// GetRewardConfig returns the per-level reward amounts
func (h *AdminHandler) GetRewardConfig(c *gin.Context) {
	rewards, err := h.rewardService.GetRewardAmounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reward config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rewards,
	})
}

// UpdateRewardConfig upserts reward amounts per level
func (h *AdminHandler) UpdateRewardConfig(c *gin.Context) {
	var req struct {
		Amounts map[string]string `json:"amounts" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for levelStr, amountStr := range req.Amounts {
		level, err := strconv.Atoi(levelStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid level: " + levelStr})
			return
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount: " + amountStr})
			return
		}
		if err := h.rewardService.SetRewardAmount(level, amount); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Reward configuration updated",
	})
}

func (h *AdminHandler) processCashout(c *gin.Context, action func(uint, string) error) {
	cashoutID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req struct {
		AdminNote string `json:"admin_note"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := action(cashoutID, req.AdminNote); err != nil {
		if errors.Is(err, services.ErrAlreadyProcessed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Cashout already processed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process cashout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cashout updated",
	})
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, err
	}
	return uint(id), nil
}
