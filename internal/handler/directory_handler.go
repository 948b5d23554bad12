package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushub/result-api/internal/models"
	"github.com/campushub/result-api/internal/service"
	appErrors "github.com/campushub/result-api/pkg/errors"
	"github.com/campushub/result-api/pkg/response"
)

// DirectoryHandler exposes read-only directory endpoints.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Directory
// @Produce json
// @Param programId query string false "Filter by program"
// @Param semester query int false "Filter by semester"
// @Param search query string false "Filter by code or name"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *DirectoryHandler) ListSubjects(c *gin.Context) {
	filter := models.SubjectFilter{
		ProgramID: c.Query("programId"),
		Search:    c.Query("search"),
	}
	if raw := c.Query("semester"); raw != "" {
		semester, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be an integer"))
			return
		}
		filter.Semester = semester
	}
	subjects, err := h.directory.ListSubjects(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// ListStudents godoc
// @Summary List students
// @Tags Directory
// @Produce json
// @Param programId query string false "Filter by program"
// @Param search query string false "Filter by name or symbol number"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *DirectoryHandler) ListStudents(c *gin.Context) {
	filter := models.StudentFilter{
		ProgramID: c.Query("programId"),
		Search:    c.Query("search"),
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		filter.Active = &active
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	students, pagination, err := h.directory.ListStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// GetStudent godoc
// @Summary Get one student
// @Tags Directory
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *DirectoryHandler) GetStudent(c *gin.Context) {
	student, err := h.directory.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// GetProgram godoc
// @Summary Get one program
// @Tags Directory
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *DirectoryHandler) GetProgram(c *gin.Context) {
	program, err := h.directory.GetProgram(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}
