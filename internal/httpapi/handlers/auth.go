package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docbot-ai/docbot/internal/auth"
	"github.com/docbot-ai/docbot/internal/common"
	"github.com/docbot-ai/docbot/internal/httpapi/middleware"
	"github.com/docbot-ai/docbot/internal/models"
)

const passwordMinLength = 8

type registerReq struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		common.Fail(c, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < passwordMinLength {
		common.Fail(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.Role != "" && !req.Role.Valid() {
		common.Fail(c, http.StatusBadRequest, "invalid role")
		return
	}

	u, err := h.Auth.Register(c.Request.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			common.Fail(c, http.StatusConflict, common.ErrEmailTaken.Error())
			return
		}
		h.Log.Error("register failed", zap.String("email", req.Email), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "registration failed")
		return
	}

	c.JSON(http.StatusCreated, u)
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "email and password required")
		return
	}

	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAccountSuspended):
			common.Fail(c, http.StatusForbidden, common.ErrAccountSuspended.Error())
		case errors.Is(err, common.ErrTooManyAttempts):
			common.Fail(c, http.StatusTooManyRequests, "too many login attempts, please try again later")
		case errors.Is(err, common.ErrInvalidCredentials):
			common.Fail(c, http.StatusUnauthorized, common.ErrInvalidCredentials.Error())
		default:
			h.Log.Error("login failed", zap.String("email", req.Email), zap.Error(err))
			common.Fail(c, http.StatusInternalServerError, "login failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": res.AccessToken,
		"token_type":   "bearer",
		"expires_in":   res.ExpiresIn,
		"user":         res.User,
	})
}

func (h *Handler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, common.ErrInvalidToken.Error())
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		common.Fail(c, http.StatusBadRequest, "token required")
		return
	}

	if err := h.Auth.VerifyEmail(c.Request.Context(), token); err != nil {
		if errors.Is(err, common.ErrVerificationToken) {
			common.Fail(c, http.StatusBadRequest, common.ErrVerificationToken.Error())
			return
		}
		h.Log.Error("verify email failed", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (h *Handler) Refresh(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, common.ErrInvalidToken.Error())
		return
	}

	token, err := h.Auth.Refresh(c.Request.Context(), u.ID)
	if err != nil {
		h.Log.Error("refresh failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "token refresh failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.Auth.TokenTTL().Seconds()),
	})
}

// Logout is advisory: tokens are stateless, so the caller simply discards its
// copy.
func (h *Handler) Logout(c *gin.Context) {
	if u, ok := middleware.CurrentUser(c); ok {
		h.Log.Info("user logged out", zap.Uint64("user_id", u.ID))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
