package handler

import (
	"github.com/gin-gonic/gin"

	"kapsul/repository"
	"kapsul/utils"
)

type SessionHandler struct {
	SessionRepo *repository.SessionRepo
}

func NewSessionHandler(sessionRepo *repository.SessionRepo) *SessionHandler {
	return &SessionHandler{SessionRepo: sessionRepo}
}

func (h *SessionHandler) GetActiveSessions(c *gin.Context) {
	sessions, err := h.SessionRepo.GetUserActiveSessions(c.GetString("user_id"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch sessions")
		return
	}
	utils.Success(c, gin.H{"sessions": sessions})
}

// EndSession terminates one of the caller's sessions by id.
func (h *SessionHandler) EndSession(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := h.SessionRepo.GetSession(sessionID)
	if err != nil || session == nil || session.UserID != c.GetString("user_id") {
		utils.NotFound(c, "Session not found")
		return
	}

	if err := h.SessionRepo.EndSession(sessionID); err != nil {
		utils.InternalError(c, "Failed to end session")
		return
	}
	utils.Success(c, gin.H{"message": "Session ended successfully"})
}

func (h *SessionHandler) LogoutAllSessions(c *gin.Context) {
	if err := h.SessionRepo.EndAllUserSessions(c.GetString("user_id")); err != nil {
		utils.InternalError(c, "Failed to end all sessions")
		return
	}

	c.SetCookie("session_id", "", -1, "/", "", true, true)
	utils.Success(c, gin.H{"message": "Successfully logged out of all sessions"})
}
