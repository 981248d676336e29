package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"referral-rewards/internal/auth"
	"referral-rewards/internal/models"
	"referral-rewards/internal/services"
)

type ReferralHandler struct {
	referralService *services.ReferralService
	rewardService   *services.RewardService
}

func NewReferralHandler(referralService *services.ReferralService, rewardService *services.RewardService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		rewardService:   rewardService,
	}
}

// GetReferralCode returns the user's referral code, assigning one on first use
func (h *ReferralHandler) GetReferralCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	code, err := h.referralService.EnsureReferralCode(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get referral code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"referral_code": code},
	})
}

// GetReferralCounts returns per-level referral counts for levels 1..3
func (h *ReferralHandler) GetReferralCounts(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	counts, err := h.referralService.CountByLevel(userID, models.MaxReferralDepth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    counts,
	})
}

// GetReferralsByLevel lists the users at one referral level
func (h *ReferralHandler) GetReferralsByLevel(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	level, err := strconv.Atoi(c.Param("level"))
	if err != nil || level < 1 || level > models.MaxReferralDepth {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Level must be between 1 and 3"})
		return
	}

	referrals, err := h.referralService.ReferralsAtLevel(userID, level)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    referrals,
		"count":   len(referrals),
	})
}

// GetEarnings returns the user's earnings ledger
func (h *ReferralHandler) GetEarnings(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	earnings, err := h.rewardService.GetEarnings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get earnings"})
		return
	}

	total, err := h.rewardService.TotalEarned(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get earnings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"earnings":     earnings,
			"total_earned": total,
		},
	})
}

// GetReferralAudit returns the immutable referral audit rows for the user
func (h *ReferralHandler) GetReferralAudit(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	referrals, err := h.referralService.GetReferralAudit(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    referrals,
		"count":   len(referrals),
	})
}
