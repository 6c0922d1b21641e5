package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kapsul/model"
	"kapsul/repository"
	"kapsul/utils"
)

// Sessions are capped per user; the oldest session is evicted when the
// cap is reached.
const MaxActiveSessions = 5

const sessionInactivityLimit = 48 * time.Hour

// SessionMiddleware resolves the session cookie, expires inactive
// sessions and refreshes the activity timestamp. Requests without a
// valid session pass through untouched; authorization is the token's
// job.
func SessionMiddleware(sessionRepo *repository.SessionRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie("session_id")
		if err != nil {
			c.Next()
			return
		}

		session, err := sessionRepo.GetSession(sessionID)
		if err != nil || session == nil || !session.IsActive {
			c.SetCookie("session_id", "", -1, "/", "", true, true)
			c.Next()
			return
		}

		if time.Since(session.LastActivityAt) > sessionInactivityLimit {
			_ = sessionRepo.EndSession(session.SessionID)
			c.SetCookie("session_id", "", -1, "/", "", true, true)
			c.Next()
			return
		}

		_ = sessionRepo.UpdateLastActivity(session.SessionID)

		c.Set("session", session)
		c.Next()
	}
}

// CreateSession starts a session for a freshly authenticated user and
// sets the session cookie.
func CreateSession(c *gin.Context, userID string, sessionRepo *repository.SessionRepo) error {
	count, err := sessionRepo.CountActiveSessions(userID)
	if err != nil {
		return err
	}
	if count >= MaxActiveSessions {
		if err := sessionRepo.EndLeastActiveSession(userID); err != nil {
			return err
		}
	}

	session := &model.Session{
		SessionID:      uuid.New().String(),
		UserID:         userID,
		DeviceInfo:     utils.GenerateSessionName(c.Request.UserAgent()),
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(24 * time.Hour),
		LastActivityAt: time.Now(),
		IPAddress:      c.ClientIP(),
		IsActive:       true,
	}

	if err := sessionRepo.CreateSession(session); err != nil {
		return err
	}

	c.SetCookie(
		"session_id",
		session.SessionID,
		int(24*time.Hour.Seconds()),
		"/",
		"",
		true,
		true,
	)

	return nil
}
