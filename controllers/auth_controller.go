// File: /controllers/auth_controller.go
package controllers

import (
	"net/http"
	"strings"

	"campus-events-api/middleware"
	"campus-events-api/models"
	"campus-events-api/services"
	"campus-events-api/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Pronouns  string `json:"pronouns"`
	// Self-service signup may not claim the admin role.
	Role string `json:"role" binding:"omitempty,oneof=user creator"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type GoogleLoginRequest struct {
	IDToken      string `json:"idToken" binding:"required"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

const weakPasswordMessage = "Password must be at least 8 characters and use 3 of: uppercase, lowercase, digits, symbols"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	email := normalizeEmail(req.Email)
	if !utils.IsValidEmail(email) {
		utils.SendValidationError(c, "Invalid email address")
		return
	}
	if !utils.IsValidPassword(req.Password) {
		utils.SendValidationError(c, weakPasswordMessage)
		return
	}

	result, err := ac.auth.Register(c.Request.Context(), services.RegisterInput{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
		Password:  req.Password,
		Pronouns:  strings.TrimSpace(req.Pronouns),
		Role:      models.Role(req.Role),
	})
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendCreated(c, "User registered successfully", result)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	result, err := ac.auth.Login(c.Request.Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Login successful", result)
}

// Me returns the user resolved from the bearer token.
func (ac *AuthController) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.SendError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if !utils.IsValidPassword(req.NewPassword) {
		utils.SendValidationError(c, weakPasswordMessage)
		return
	}

	userID := c.GetString(middleware.ContextUserID)
	if err := ac.auth.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Password changed successfully", nil)
}

func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	if err := ac.auth.ForgotPassword(c.Request.Context(), normalizeEmail(req.Email)); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "If the email is registered, a reset link has been sent", nil)
}

func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if !utils.IsValidPassword(req.Password) {
		utils.SendValidationError(c, weakPasswordMessage)
		return
	}

	if err := ac.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Password reset successfully", nil)
}

func (ac *AuthController) GoogleLogin(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	result, err := ac.auth.GoogleLogin(c.Request.Context(), req.IDToken, req.AccessToken, req.RefreshToken)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Login successful", result)
}
