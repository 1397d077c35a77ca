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

// QuizHandler handles the participant quiz lifecycle endpoints.
type QuizHandler struct {
	quizService       *service.QuizService
	violationService  *service.ViolationService
	submissionService *service.SubmissionService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(
	quizService *service.QuizService,
	violationService *service.ViolationService,
	submissionService *service.SubmissionService,
) *QuizHandler {
	return &QuizHandler{
		quizService:       quizService,
		violationService:  violationService,
		submissionService: submissionService,
	}
}

// GetPaper godoc
// GET /api/v1/quiz/paper
// Returns the question paper (no answers) and starts the attempt clock.
func (h *QuizHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	paper, err := h.quizService.GetPaper(c.Request.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuizClosed):
			response.Fail(c, http.StatusForbidden, response.ErrQuizClosed)
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// GetState godoc
// GET /api/v1/quiz/state
// Returns saved answers, remaining time, and violation count so a
// reloaded page can resume the session.
func (h *QuizHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	state, err := h.quizService.GetState(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SaveAnswers godoc
// POST /api/v1/quiz/answers
// Stores the debounced autosave snapshot. The payload is always the
// full answer set.
func (h *QuizHandler) SaveAnswers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SaveAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.quizService.SaveAnswers(c.Request.Context(), claims.UserID, req.Answers); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// ReportViolation godoc
// POST /api/v1/quiz/violations
// Records an anti-cheat event and returns the authoritative count plus
// the auto-submit verdict.
func (h *QuizHandler) ReportViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.violationService.Record(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// Submit godoc
// POST /api/v1/quiz/submit
// Grades and stores the final submission. Idempotent per participant:
// the second call gets a conflict.
func (h *QuizHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubmitted) {
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}
