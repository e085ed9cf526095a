package controller

import (
	"net/http"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthController struct {
	Service *service.AuthService
}

func NewAuthController(s *service.AuthService) *AuthController {
	return &AuthController{Service: s}
}

// POST /api/users/register
func (ctl *AuthController) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := ctl.Service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    user,
	})
}

// POST /api/users/login — paso 1: password; admin y vendor salen con
// token, customer recibe el código por correo.
func (ctl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	res, err := ctl.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// POST /api/users/verify-otp — paso 2: canjear el código por un token.
func (ctl *AuthController) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	res, err := ctl.Service.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GET /api/users/profile
func (ctl *AuthController) Profile(c *gin.Context) {
	id, _ := c.MustGet(middleware.CtxUserID).(primitive.ObjectID)

	user, err := ctl.Service.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GET /api/users/check-role
func (ctl *AuthController) CheckRole(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"role": c.GetString(middleware.CtxUserRole)})
}

// POST /api/users/logout — el token es stateless, sólo se confirma.
func (ctl *AuthController) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
