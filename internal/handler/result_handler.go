package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushub/result-api/internal/models"
	"github.com/campushub/result-api/internal/service"
	appErrors "github.com/campushub/result-api/pkg/errors"
	"github.com/campushub/result-api/pkg/export"
	"github.com/campushub/result-api/pkg/response"
)

// ResultHandler exposes score computation and publication endpoints.
type ResultHandler struct {
	results *service.ResultService
	scores  *service.ScoreService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewResultHandler constructs handler.
func NewResultHandler(results *service.ResultService, scores *service.ScoreService) *ResultHandler {
	return &ResultHandler{
		results: results,
		scores:  scores,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// SubjectScore godoc
// @Summary Compute a normalised subject score
// @Tags Results
// @Produce json
// @Param studentId query string true "Student ID"
// @Param subjectId query string true "Subject ID"
// @Param semester query int true "Semester"
// @Param examTerm query string true "Exam term"
// @Success 200 {object} response.Envelope
// @Router /results/score [get]
func (h *ResultHandler) SubjectScore(c *gin.Context) {
	studentID := c.Query("studentId")
	subjectID := c.Query("subjectId")
	examTerm := c.Query("examTerm")
	semester, err := strconv.Atoi(c.Query("semester"))
	if studentID == "" || subjectID == "" || examTerm == "" || err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId, subjectId, semester and examTerm required"))
		return
	}
	score, err := h.scores.ComputeSubjectScore(c.Request.Context(), studentID, subjectID, semester, examTerm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// Summary godoc
// @Summary Compute a live semester summary
// @Tags Results
// @Produce json
// @Param studentId query string true "Student ID"
// @Param semester query int true "Semester"
// @Param examTerm query string true "Exam term"
// @Success 200 {object} response.Envelope
// @Router /results/summary [get]
func (h *ResultHandler) Summary(c *gin.Context) {
	studentID := c.Query("studentId")
	examTerm := c.Query("examTerm")
	semester, err := strconv.Atoi(c.Query("semester"))
	if studentID == "" || examTerm == "" || err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId, semester and examTerm required"))
		return
	}
	summary, err := h.results.Aggregate(c.Request.Context(), studentID, semester, examTerm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Publish godoc
// @Summary Publish one student's semester result
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.PublishRequest true "Publish payload"
// @Success 201 {object} response.Envelope
// @Router /results/publish [post]
func (h *ResultHandler) Publish(c *gin.Context) {
	var req service.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.results.PublishSingle(c.Request.Context(), req, authFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// PublishBulk godoc
// @Summary Publish results for a whole program semester
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.BulkPublishRequest true "Bulk publish payload"
// @Success 200 {object} response.Envelope
// @Router /results/publish-bulk [post]
func (h *ResultHandler) PublishBulk(c *gin.Context) {
	var req service.BulkPublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.results.PublishBulk(c.Request.Context(), req, authFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Republish godoc
// @Summary Recompute and overwrite an existing published result
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.PublishRequest true "Republish payload"
// @Success 200 {object} response.Envelope
// @Router /results/republish [post]
func (h *ResultHandler) Republish(c *gin.Context) {
	var req service.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.results.Republish(c.Request.Context(), req, authFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Published godoc
// @Summary List published results
// @Tags Results
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param programId query string false "Filter by program"
// @Param semester query int false "Filter by semester"
// @Param examTerm query string false "Filter by exam term"
// @Success 200 {object} response.Envelope
// @Router /results/published [get]
func (h *ResultHandler) Published(c *gin.Context) {
	filter := models.PublishedResultFilter{
		StudentID: c.Query("studentId"),
		ProgramID: c.Query("programId"),
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

	// Students only ever see their own published results.
	auth := authFromContext(c)
	if auth.Role == models.RoleStudent {
		if auth.StudentID == "" {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		filter.StudentID = auth.StudentID
	}

	results, err := h.results.GetPublished(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Export godoc
// @Summary Export one published result as CSV or PDF
// @Tags Results
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Published result ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /results/published/{id}/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	result, err := h.results.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	auth := authFromContext(c)
	if auth.Role == models.RoleStudent && auth.StudentID != result.StudentID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	data := resultDataset(result)
	filename := fmt.Sprintf("result-%s-sem%d-%s", result.StudentID, result.Semester, result.ExamTerm)

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.csv.Render(data)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(data, fmt.Sprintf("Semester %d Result - %s", result.Semester, result.ExamTerm))
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func resultDataset(result *models.PublishedResult) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Subject Code", "Subject Name", "Subject (50)", "Extra (50)", "Final (100)", "Grade"},
		Rows:    make([]map[string]string, 0, len(result.Breakdown)+1),
	}
	for _, subject := range result.Breakdown {
		data.Rows = append(data.Rows, map[string]string{
			"Subject Code": subject.SubjectCode,
			"Subject Name": subject.SubjectName,
			"Subject (50)": strconv.FormatFloat(subject.SubjectObtained, 'f', 2, 64),
			"Extra (50)":   strconv.FormatFloat(subject.ExtraObtained, 'f', 2, 64),
			"Final (100)":  strconv.FormatFloat(subject.FinalMark, 'f', 2, 64),
			"Grade":        subject.Grade,
		})
	}
	data.Rows = append(data.Rows, map[string]string{
		"Subject Code": "TOTAL",
		"Subject Name": fmt.Sprintf("GPA %.2f", result.GPA),
		"Final (100)":  fmt.Sprintf("%.2f / %.2f (%.2f%%)", result.TotalObtained, result.TotalFull, result.Percentage),
	})
	return data
}
