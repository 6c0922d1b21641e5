package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"

	"kapsul/middleware"
	"kapsul/model"
	"kapsul/repository"
	"kapsul/services"
	"kapsul/usecase"
	"kapsul/utils"
)

type AuthHandler struct {
	Users       *usecase.UserService
	SessionRepo *repository.SessionRepo
}

func NewAuthHandler(users *usecase.UserService, sessionRepo *repository.SessionRepo) *AuthHandler {
	return &AuthHandler{Users: users, SessionRepo: sessionRepo}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.Users.CreateUser(c.Request.Context(), &user); err != nil {
		if err.Error() == "username already exists" {
			utils.Conflict(c, err.Error())
			return
		}
		utils.BadRequest(c, err.Error())
		return
	}

	utils.Created(c, gin.H{
		"message": "User registered successfully",
		"user_id": user.UserID,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var loginReq model.LoginRequest
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.Users.FindUserByUsername(loginReq.Username)
	if err != nil || user == nil {
		utils.TrackAuthAttempt("failure", "login")
		utils.Unauthorized(c, "Invalid username or password")
		return
	}

	if !services.ComparePasswords(user.Password, loginReq.Password) {
		utils.TrackAuthAttempt("failure", "login")
		utils.Unauthorized(c, "Invalid username or password")
		return
	}

	if user.TwoFactorEnabled {
		if loginReq.TwoFactorCode == "" {
			utils.Unauthorized(c, "Two-factor code required")
			return
		}
		if !totp.Validate(loginReq.TwoFactorCode, user.TwoFactorSecret) {
			utils.TrackAuthAttempt("failure", "2fa")
			utils.Unauthorized(c, "Invalid two-factor code")
			return
		}
		utils.TrackAuthAttempt("success", "2fa")
	}

	token, err := services.GenerateToken(user.UserID)
	if err != nil {
		utils.InternalError(c, "Failed to generate token")
		return
	}
	refreshToken, err := services.GenerateRefreshToken(user.UserID)
	if err != nil {
		utils.InternalError(c, "Failed to generate refresh token")
		return
	}

	if err := middleware.CreateSession(c, user.UserID, h.SessionRepo); err != nil {
		utils.InternalError(c, "Failed to create session")
		return
	}

	utils.TrackAuthAttempt("success", "login")
	utils.Success(c, gin.H{
		"message": "Login successful",
		"token":   token,
		"refresh": refreshToken,
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Logout blacklists both tokens and ends the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	accessToken := strings.TrimPrefix(authHeader, "Bearer ")

	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if err := services.BlacklistTokens(accessToken, req.RefreshToken); err != nil {
		utils.InternalError(c, "Failed to invalidate tokens")
		return
	}

	if sessionID, err := c.Cookie("session_id"); err == nil {
		_ = h.SessionRepo.EndSession(sessionID)
	}
	c.SetCookie("session_id", "", -1, "/", "", true, true)

	utils.Success(c, gin.H{"message": "Logged out successfully"})
}

// RefreshToken exchanges a valid refresh token for a fresh token pair.
// The old refresh token is blacklisted so it cannot be replayed.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		utils.Unauthorized(c, "Missing or invalid refresh token")
		return
	}
	refreshToken := strings.TrimPrefix(authHeader, "Bearer ")

	if services.IsTokenBlacklisted(refreshToken) {
		utils.Unauthorized(c, "Refresh token has been invalidated")
		return
	}

	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(utils.JWTSecretKey), nil
	})
	if err != nil || !token.Valid {
		utils.TrackAuthAttempt("failure", "refresh")
		utils.Unauthorized(c, "Invalid refresh token")
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != "refresh" || claims["user_id"] == nil {
		utils.Unauthorized(c, "Invalid token claims")
		return
	}
	if exp, ok := claims["exp"].(float64); ok && time.Unix(int64(exp), 0).Before(time.Now()) {
		utils.Unauthorized(c, "Refresh token has expired")
		return
	}

	userID := claims["user_id"].(string)

	newAccessToken, err := services.GenerateToken(userID)
	if err != nil {
		utils.InternalError(c, "Failed to generate access token")
		return
	}
	newRefreshToken, err := services.GenerateRefreshToken(userID)
	if err != nil {
		utils.InternalError(c, "Failed to generate refresh token")
		return
	}

	if services.TokenBlacklist != nil {
		_ = services.TokenBlacklist.BlacklistRefreshToken(refreshToken)
	}

	utils.TrackAuthAttempt("success", "refresh")
	utils.Success(c, gin.H{
		"token":   newAccessToken,
		"refresh": newRefreshToken,
	})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.Users.FindUser(c.GetString("user_id"))
	if err != nil || user == nil {
		utils.NotFound(c, "User not found")
		return
	}

	utils.Success(c, gin.H{
		"user_id":            user.UserID,
		"username":           user.Username,
		"email":              user.Email,
		"created_at":         user.CreatedAt,
		"two_factor_enabled": user.TwoFactorEnabled,
	})
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// DeleteAccount removes the user after re-verifying their password. All
// sessions are ended first.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID := c.GetString("user_id")

	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.Users.FindUser(userID)
	if err != nil || user == nil {
		utils.NotFound(c, "User not found")
		return
	}
	if !services.ComparePasswords(user.Password, req.Password) {
		utils.Unauthorized(c, "Incorrect password")
		return
	}

	if err := h.SessionRepo.EndAllUserSessions(userID); err != nil {
		utils.InternalError(c, "Failed to end sessions")
		return
	}
	if err := h.Users.UsersRepo.DeleteUser(userID); err != nil {
		utils.InternalError(c, "Failed to delete account")
		return
	}

	c.SetCookie("session_id", "", -1, "/", "", true, true)
	utils.Success(c, gin.H{"message": "Account deleted successfully"})
}
