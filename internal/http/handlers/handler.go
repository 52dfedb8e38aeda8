package handlers

import (
	"errors"
	"net/http"

	"clicker_empire/internal/economy"
	"clicker_empire/internal/logger"
	"clicker_empire/internal/repository"
	"clicker_empire/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Players  *service.PlayerService
	BotToken string
	DevMode  bool
}

func NewHandler(players *service.PlayerService, botToken string, devMode bool) *Handler {
	return &Handler{
		Players:  players,
		BotToken: botToken,
		DevMode:  devMode,
	}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// ErrorStatus maps engine and storage errors to an HTTP status and a stable code.
func ErrorStatus(err error) (int, string) {
	var short *economy.InsufficientBalanceError
	switch {
	case errors.As(err, &short):
		return http.StatusPaymentRequired, "insufficient_balance"
	case errors.Is(err, repository.ErrPlayerNotFound):
		return http.StatusNotFound, "player_not_found"
	case errors.Is(err, economy.ErrUnknownItem):
		return http.StatusBadRequest, "unknown_item"
	case errors.Is(err, economy.ErrMaxLevel):
		return http.StatusUnprocessableEntity, "max_level"
	case errors.Is(err, economy.ErrRefillLimitReached):
		return http.StatusUnprocessableEntity, "refill_limit_reached"
	case errors.Is(err, economy.ErrBoostActive):
		return http.StatusUnprocessableEntity, "boost_active"
	case errors.Is(err, service.ErrConcurrentUpdate):
		return http.StatusConflict, "concurrent_update"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := ErrorStatus(err)
	body := gin.H{"error": err.Error(), "code": code}

	var short *economy.InsufficientBalanceError
	if errors.As(err, &short) {
		body["shortfall"] = short.Shortfall()
		body["cost"] = short.Cost
		body["balance"] = short.Balance
	}
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}
