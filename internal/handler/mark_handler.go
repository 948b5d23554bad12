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

// MarkHandler exposes mark entry endpoints.
type MarkHandler struct {
	marks *service.MarkService
}

// NewMarkHandler constructs handler.
func NewMarkHandler(marks *service.MarkService) *MarkHandler {
	return &MarkHandler{marks: marks}
}

// UpsertSubjectMark godoc
// @Summary Record or correct a direct subject mark
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.SubjectMarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Router /marks/subject [put]
func (h *MarkHandler) UpsertSubjectMark(c *gin.Context) {
	var req service.SubjectMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	mark, err := h.marks.UpsertSubjectMark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mark, nil)
}

// UpsertParameterMark godoc
// @Summary Record or correct an extra-parameter mark
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.ParameterMarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Router /marks/parameter [put]
func (h *MarkHandler) UpsertParameterMark(c *gin.Context) {
	var req service.ParameterMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	mark, err := h.marks.UpsertParameterMark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mark, nil)
}

// ListSubjectMarks godoc
// @Summary List direct subject marks
// @Tags Marks
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param subjectId query string false "Filter by subject"
// @Param semester query int false "Filter by semester"
// @Param examTerm query string false "Filter by exam term"
// @Success 200 {object} response.Envelope
// @Router /marks/subject [get]
func (h *MarkHandler) ListSubjectMarks(c *gin.Context) {
	filter := models.MarkFilter{
		StudentID: c.Query("studentId"),
		SubjectID: c.Query("subjectId"),
		ExamTerm:  c.Query("examTerm"),
	}
	if raw := c.Query("semester"); raw != "" {
		semester, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be an integer"))
			return
		}
		filter.Semester = semester
	}
	marks, err := h.marks.ListSubjectMarks(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// ListParameterMarks godoc
// @Summary List extra-parameter marks for one student and subject
// @Tags Marks
// @Produce json
// @Param studentId query string true "Student ID"
// @Param subjectId query string true "Subject ID"
// @Param semester query int true "Semester"
// @Param examTerm query string true "Exam term"
// @Success 200 {object} response.Envelope
// @Router /marks/parameter [get]
func (h *MarkHandler) ListParameterMarks(c *gin.Context) {
	studentID := c.Query("studentId")
	subjectID := c.Query("subjectId")
	examTerm := c.Query("examTerm")
	semester, err := strconv.Atoi(c.Query("semester"))
	if studentID == "" || subjectID == "" || examTerm == "" || err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId, subjectId, semester and examTerm required"))
		return
	}
	marks, err := h.marks.ListParameterMarks(c.Request.Context(), studentID, subjectID, semester, examTerm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}
