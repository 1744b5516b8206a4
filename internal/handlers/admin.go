package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shadowtalk/internal/services"
	"shadowtalk/internal/utils"
	"shadowtalk/pkg/logger"
)

// AdminHandler exposes the moderation surface.
type AdminHandler struct {
	matchmaker *services.Matchmaker
	users      *services.UserService
}

func NewAdminHandler(matchmaker *services.Matchmaker, users *services.UserService) *AdminHandler {
	return &AdminHandler{
		matchmaker: matchmaker,
		users:      users,
	}
}

// BanUser flips the persisted ban flag and ejects the user from the live
// system: queue removal, session teardown with user_banned, partner told
// partner_banned.
func (h *AdminHandler) BanUser(c *gin.Context) {
	userID := c.Param("id")

	if err := h.users.SetBanned(c.Request.Context(), userID, true); err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "User not found")
		return
	}
	h.matchmaker.BanUser(c.Request.Context(), userID)

	logger.LogUserAction(userID, "banned", map[string]interface{}{
		"by": c.GetString("user_id"),
	})
	utils.SuccessResponseWithMessage(c, "User banned", gin.H{"user_id": userID})
}

// UnbanUser clears the persisted ban flag.
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	userID := c.Param("id")

	if err := h.users.SetBanned(c.Request.Context(), userID, false); err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "User not found")
		return
	}

	logger.LogUserAction(userID, "unbanned", map[string]interface{}{
		"by": c.GetString("user_id"),
	})
	utils.SuccessResponseWithMessage(c, "User unbanned", gin.H{"user_id": userID})
}
