package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"referral-rewards/internal/auth"
	"referral-rewards/internal/services"
)

type CashoutHandler struct {
	cashoutService *services.CashoutService
	userService    *services.UserService
}

func NewCashoutHandler(cashoutService *services.CashoutService, userService *services.UserService) *CashoutHandler {
	return &CashoutHandler{
		cashoutService: cashoutService,
		userService:    userService,
	}
}

// RequestCashout debits the balance and queues a withdrawal for admin review
func (h *CashoutHandler) RequestCashout(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount        string `json:"amount" binding:"required"`
		PhoneNumber   string `json:"phone_number" binding:"required"`
		RecipientName string `json:"recipient_name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	request, err := h.cashoutService.RequestCashout(userID, amount, req.PhoneNumber, req.RecipientName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
		case errors.Is(err, services.ErrBelowMinimumCashout):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount below minimum cashout"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Cashout request submitted",
		"data":    request,
	})
}

// GetCashouts returns the user's cashout history
func (h *CashoutHandler) GetCashouts(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cashouts, err := h.cashoutService.GetUserCashouts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get cashouts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cashouts,
	})
}
