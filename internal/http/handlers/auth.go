package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"clicker_empire/internal/service"
	"clicker_empire/internal/telegram"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data"`
}

const maxInitDataLen = 4096

func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if len(req.InitData) > maxInitDataLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	var prof service.Profile
	if h.DevMode {
		// DEV MODE: без проверки подписи
		prof = devProfile(req.InitData)
	} else {
		values, ok := telegram.ValidateInitData(req.InitData, h.BotToken, time.Now())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale telegram data"})
			return
		}
		tgUser, err := telegram.ParseUser(values)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user json"})
			return
		}
		prof = service.Profile{
			TgID:      tgUser.ID,
			Username:  tgUser.Username,
			FirstName: tgUser.FirstName,
			IsPremium: tgUser.IsPremium,
		}
	}

	player, created, err := h.Players.EnsurePlayer(c.Request.Context(), prof)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := service.GenerateJWT(player.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"created": created,
		"user": gin.H{
			"id":         player.ID,
			"tg_id":      player.TgID,
			"username":   player.Username,
			"first_name": player.FirstName,
			"is_premium": player.IsPremium,
		},
	})
}

// devProfile trusts whatever user the init data names, falling back to a fixed test account.
func devProfile(initData string) service.Profile {
	prof := service.Profile{TgID: 12345, FirstName: "Test"}
	if values, err := url.ParseQuery(initData); err == nil {
		if u, err := telegram.ParseUser(values); err == nil {
			prof = service.Profile{TgID: u.ID, Username: u.Username, FirstName: u.FirstName, IsPremium: u.IsPremium}
		}
	}
	if prof.Username == "" {
		prof.Username = "testuser" + strconv.FormatInt(prof.TgID, 10)
	}
	return prof
}
