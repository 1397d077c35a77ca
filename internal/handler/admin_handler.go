package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/response"
	"github.com/smartquiz/quizrun-backend/internal/service"
	"github.com/smartquiz/quizrun-backend/internal/validator"
)

// AdminHandler handles the back-office endpoints: dashboard, settings,
// question management, participants, violations, and the CSV export.
type AdminHandler struct {
	monitorService     *service.MonitorService
	settingService     *service.SettingService
	questionService    *service.QuestionService
	participantService *service.ParticipantService
	violationService   *service.ViolationService
	resultService      *service.ResultService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	monitorService *service.MonitorService,
	settingService *service.SettingService,
	questionService *service.QuestionService,
	participantService *service.ParticipantService,
	violationService *service.ViolationService,
	resultService *service.ResultService,
) *AdminHandler {
	return &AdminHandler{
		monitorService:     monitorService,
		settingService:     settingService,
		questionService:    questionService,
		participantService: participantService,
		violationService:   violationService,
		resultService:      resultService,
	}
}

// GetDashboard godoc
// GET /api/v1/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	snapshot, err := h.monitorService.GetDashboard(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}

// GetSettings godoc
// GET /api/v1/admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	setting, err := h.settingService.Get(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, setting)
}

// UpdateSettings godoc
// PUT /api/v1/admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	setting, err := h.settingService.Update(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, setting)
}

// ListQuestions godoc
// GET /api/v1/admin/questions
func (h *AdminHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questionService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	var req model.UpsertQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
func (h *AdminHandler) UpdateQuestion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpsertQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// SetQuestionActive godoc
// PATCH /api/v1/admin/questions/:id/active
// Deactivation pulls a question from the paper without deleting it.
func (h *AdminHandler) SetQuestionActive(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.questionService.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListParticipants godoc
// GET /api/v1/admin/participants?page=1&per_page=50
func (h *AdminHandler) ListParticipants(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	participants, total, err := h.participantService.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"participants": participants}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// ResetParticipantSession godoc
// POST /api/v1/admin/participants/:id/reset-session
// Clears the single-device lock so the participant can log in again.
func (h *AdminHandler) ResetParticipantSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.participantService.ResetSession(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// GetViolationReport godoc
// GET /api/v1/admin/violations
func (h *AdminHandler) GetViolationReport(c *gin.Context) {
	report, err := h.violationService.Report(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"violations": report})
}

// GetParticipantViolations godoc
// GET /api/v1/admin/participants/:id/violations
func (h *AdminHandler) GetParticipantViolations(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	violations, err := h.violationService.ListByParticipant(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"violations": violations})
}

// ExportResults godoc
// GET /api/v1/admin/export
// Streams all results as a CSV attachment.
func (h *AdminHandler) ExportResults(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="quiz_results.csv"`)

	if err := h.resultService.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		// Headers are already written; all we can do is log via gin's
		// error list and cut the stream.
		_ = c.Error(err)
	}
}
