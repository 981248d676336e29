package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"referral-rewards/internal/auth"
	"referral-rewards/internal/models"
	"referral-rewards/internal/services"
)

type UserHandler struct {
	userService     *services.UserService
	referralService *services.ReferralService
}

func NewUserHandler(userService *services.UserService, referralService *services.ReferralService) *UserHandler {
	return &UserHandler{
		userService:     userService,
		referralService: referralService,
	}
}

// GetProfile returns the user's profile with referral summary
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	code, err := h.referralService.EnsureReferralCode(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get referral code"})
		return
	}

	counts, err := h.referralService.CountByLevel(userID, models.MaxReferralDepth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user":            user,
			"referral_code":   code,
			"referral_counts": counts,
		},
	})
}
