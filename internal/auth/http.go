package auth

import (
	"net/http"

	"github.com/abduss/fragstore/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RegisterRoutes mounts authentication endpoints under /auth.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", handler.register)
		authGroup.POST("/login", handler.login)
	}
}

type httpHandler struct {
	service *Service
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (h *httpHandler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "email and password are required"))
		return
	}

	result, err := h.service.Register(c.Request.Context(), Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch err {
		case ErrEmailAlreadyExists:
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, "email already registered"))
		case ErrInvalidCredentials:
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid credentials"))
		default:
			log.Error().Err(err).Msg("register user")
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "failed to register user"))
		}
		return
	}

	c.JSON(http.StatusCreated, response.Success(marshalAuthResult(result)))
}

func (h *httpHandler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "email and password are required"))
		return
	}

	result, err := h.service.Login(c.Request.Context(), Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid credentials"))
		default:
			log.Error().Err(err).Msg("login user")
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "failed to log in"))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(marshalAuthResult(result)))
}

func marshalAuthResult(result AuthResult) gin.H {
	return gin.H{
		"user": gin.H{
			"id":    result.User.ID.String(),
			"email": result.User.Email,
		},
		"access_token":            result.AccessToken,
		"access_token_expires_at": result.AccessTokenExpiry.Unix(),
	}
}
