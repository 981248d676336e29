package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"referral-rewards/internal/auth"
	"referral-rewards/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	userService    *services.UserService
}

func NewPaymentHandler(paymentService *services.PaymentService, userService *services.UserService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		userService:    userService,
	}
}

// SubmitPayment records the user's claim of having paid, for admin review
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reference, err := h.paymentService.SubmitPayment(userID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyProcessed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Payment already processed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment submitted for verification",
		"data":    gin.H{"reference": reference},
	})
}

// GetPaymentStatus returns the user's payment status
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"payment_status":    user.PaymentStatus,
			"payment_date":      user.PaymentDate,
			"payment_reference": user.PaymentReference,
		},
	})
}
