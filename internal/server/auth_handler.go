package server

import (
	"github.com/emrgen/travelexpense/internal/auth"
	"github.com/emrgen/travelexpense/internal/module"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *auth.Service
}

func NewAuthHandler(auth *auth.Service) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	AccessToken string `json:"access_token"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	session, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, session)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, session)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AccessToken == "" {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	session, err := h.auth.Refresh(c.Request.Context(), req.AccessToken)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, session)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), module.GetToken(c)); err != nil {
		Error(c, err)
		return
	}

	Success(c, nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.auth.CurrentUser(c.Request.Context(), module.GetUserID(c))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, profile)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req auth.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	profile, err := h.auth.UpdateProfile(c.Request.Context(), module.GetUserID(c), req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, profile)
}

// RequestPasswordReset always answers the same way so that accounts cannot be probed.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	if _, err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		Error(c, err)
		return
	}

	Accepted(c, "パスワードリセットの手順を送信しました", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "リクエストの形式が正しくありません")
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		Error(c, err)
		return
	}

	Success(c, nil)
}
