package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smartquiz/quizrun-backend/internal/middleware"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/response"
	"github.com/smartquiz/quizrun-backend/internal/service"
	"github.com/smartquiz/quizrun-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService        *service.AuthService
	participantService *service.ParticipantService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, participantService *service.ParticipantService) *AuthHandler {
	return &AuthHandler{
		authService:        authService,
		participantService: participantService,
	}
}

// ParticipantLogin godoc
// POST /api/v1/auth/login
// Registers or re-identifies a participant and returns the JWT plus the
// quiz token for the session engine.
func (h *AuthHandler) ParticipantLogin(c *gin.Context) {
	var req model.ParticipantLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.authService.ParticipantLogin(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":      session.Token,
		"quiz_token": session.QuizToken,
		"participant": gin.H{
			"id":             session.Participant.ID,
			"name":           session.Participant.Name,
			"register_no":    session.Participant.RegisterNo,
			"attempt_status": session.Participant.AttemptStatus,
		},
	})
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
// Validates email + password, returns JWT.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	admin, token, err := h.authService.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{
			"id":    admin.ID,
			"name":  admin.Name,
			"email": admin.Email,
		},
	})
}

// GetParticipantProfile godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated participant.
func (h *AuthHandler) GetParticipantProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	p, err := h.participantService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"participant": gin.H{
			"id":             p.ID,
			"name":           p.Name,
			"register_no":    p.RegisterNo,
			"email":          p.Email,
			"attempt_status": p.AttemptStatus,
		},
	})
}

// ParticipantLogout godoc
// POST /api/v1/auth/logout
// Clears the participant's single-device session.
func (h *AuthHandler) ParticipantLogout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ResetParticipantSession(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
