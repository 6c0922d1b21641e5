package handler

import (
	"github.com/gin-gonic/gin"

	"kapsul/repository"
	"kapsul/usecase"
	"kapsul/utils"
)

type StatsHandler struct {
	Items       *usecase.ItemsService
	SessionRepo *repository.SessionRepo
}

func NewStatsHandler(items *usecase.ItemsService, sessionRepo *repository.SessionRepo) *StatsHandler {
	return &StatsHandler{Items: items, SessionRepo: sessionRepo}
}

// GetUserStats summarizes the caller's library plus light process-level
// health numbers.
func (h *StatsHandler) GetUserStats(c *gin.Context) {
	userID := c.GetString("user_id")

	stats, err := h.Items.GetLibraryStats(c.Request.Context(), userID)
	if err != nil {
		utils.InternalError(c, "Failed to compute library stats")
		return
	}

	activeSessions, err := h.SessionRepo.CountActiveSessions(userID)
	if err != nil {
		utils.InternalError(c, "Failed to count sessions")
		return
	}

	utils.Success(c, gin.H{
		"library":         stats,
		"active_sessions": activeSessions,
		"system": gin.H{
			"cpu_percent":    utils.GetCPUUsage(),
			"memory_percent": utils.GetMemoryUsage(),
		},
	})
}
