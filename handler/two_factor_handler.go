package handler

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"

	"kapsul/usecase"
	"kapsul/utils"
)

type TwoFactorHandler struct {
	Users *usecase.UserService
}

func NewTwoFactorHandler(users *usecase.UserService) *TwoFactorHandler {
	return &TwoFactorHandler{Users: users}
}

// GenerateSecret creates a fresh TOTP secret and a QR code for
// authenticator enrollment. Nothing is persisted until the user proves
// possession in Enable.
func (h *TwoFactorHandler) GenerateSecret(c *gin.Context) {
	user, err := h.Users.FindUser(c.GetString("user_id"))
	if err != nil || user == nil {
		utils.NotFound(c, "User not found")
		return
	}
	if user.TwoFactorEnabled {
		utils.BadRequest(c, "2FA is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Kapsul",
		AccountName: user.Username,
	})
	if err != nil {
		utils.InternalError(c, "Failed to generate 2FA secret")
		return
	}

	img, err := key.Image(200, 200)
	if err != nil {
		utils.InternalError(c, "Failed to generate QR code")
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		utils.InternalError(c, "Failed to encode QR code")
		return
	}

	utils.Success(c, gin.H{
		"secret":  key.Secret(),
		"qr_code": "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

type enable2FARequest struct {
	Secret string `json:"secret" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// Enable turns 2FA on once the user proves the authenticator works, and
// hands out the one-time-visible recovery codes.
func (h *TwoFactorHandler) Enable(c *gin.Context) {
	var req enable2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	userID := c.GetString("user_id")
	user, err := h.Users.FindUser(userID)
	if err != nil || user == nil {
		utils.NotFound(c, "User not found")
		return
	}
	if user.TwoFactorEnabled {
		utils.BadRequest(c, "2FA is already enabled")
		return
	}

	if !totp.Validate(req.Code, req.Secret) {
		utils.BadRequest(c, "Invalid 2FA code")
		return
	}

	recoveryCodes, err := utils.GenerateRecoveryCodes()
	if err != nil {
		utils.InternalError(c, "Failed to generate recovery codes")
		return
	}

	hashedCodes := utils.HashRecoveryCodes(recoveryCodes)
	if err := h.Users.UsersRepo.UpdateTwoFactor(userID, true, req.Secret, hashedCodes); err != nil {
		utils.InternalError(c, "Failed to enable 2FA")
		return
	}

	utils.Success(c, gin.H{
		"message":        "2FA enabled successfully",
		"recovery_codes": recoveryCodes,
		"warning":        "Save these recovery codes securely. They will not be shown again.",
	})
}

type disable2FARequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *TwoFactorHandler) Disable(c *gin.Context) {
	var req disable2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	userID := c.GetString("user_id")
	user, err := h.Users.FindUser(userID)
	if err != nil || user == nil {
		utils.NotFound(c, "User not found")
		return
	}
	if !user.TwoFactorEnabled {
		utils.BadRequest(c, "2FA is not enabled")
		return
	}

	if !totp.Validate(req.Code, user.TwoFactorSecret) {
		utils.Unauthorized(c, "Invalid 2FA code")
		return
	}

	if err := h.Users.UsersRepo.UpdateTwoFactor(userID, false, "", nil); err != nil {
		utils.InternalError(c, "Failed to disable 2FA")
		return
	}

	utils.Success(c, gin.H{"message": "2FA disabled successfully"})
}

type recoveryCodeRequest struct {
	RecoveryCode string `json:"recovery_code" binding:"required"`
}

// UseRecoveryCode consumes a recovery code as a 2FA fallback. Each code
// works once.
func (h *TwoFactorHandler) UseRecoveryCode(c *gin.Context) {
	var req recoveryCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	userID := c.GetString("user_id")
	user, err := h.Users.FindUser(userID)
	if err != nil || user == nil {
		utils.NotFound(c, "User not found")
		return
	}

	code := strings.ToUpper(strings.ReplaceAll(req.RecoveryCode, "-", ""))
	hashedCode := utils.HashString(code)

	found := false
	remaining := make([]string, 0, len(user.RecoveryCodes))
	for _, storedCode := range user.RecoveryCodes {
		if storedCode == hashedCode {
			found = true
		} else {
			remaining = append(remaining, storedCode)
		}
	}
	if !found {
		utils.TrackAuthAttempt("failure", "2fa")
		utils.Unauthorized(c, "Invalid recovery code")
		return
	}

	if err := h.Users.UsersRepo.UpdateRecoveryCodes(userID, remaining); err != nil {
		utils.InternalError(c, "Failed to update recovery codes")
		return
	}

	utils.TrackAuthAttempt("success", "2fa")
	utils.Success(c, gin.H{
		"message":         "Recovery code accepted",
		"remaining_codes": len(remaining),
	})
}
