package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smartquiz/quizrun-backend/internal/middleware"
	"github.com/smartquiz/quizrun-backend/internal/response"
	"github.com/smartquiz/quizrun-backend/internal/service"
)

// ResultHandler handles the participant result and public leaderboard.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// GetResult godoc
// GET /api/v1/quiz/result
// Returns the authenticated participant's score, rank, and percentage.
func (h *ResultHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.resultService.GetResult(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoSubmission) {
			response.Fail(c, http.StatusNotFound, response.ErrNoSubmission)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetLeaderboard godoc
// GET /api/v1/leaderboard
// Public top-50 board ordered by score, ties broken by time taken.
func (h *ResultHandler) GetLeaderboard(c *gin.Context) {
	board, err := h.resultService.GetLeaderboard(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"leaderboard": board})
}
