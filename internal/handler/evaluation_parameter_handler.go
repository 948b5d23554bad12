package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/result-api/internal/service"
	appErrors "github.com/campushub/result-api/pkg/errors"
	"github.com/campushub/result-api/pkg/response"
)

// EvaluationParameterHandler exposes the parameter registry endpoints.
type EvaluationParameterHandler struct {
	parameters *service.EvaluationParameterService
}

// NewEvaluationParameterHandler constructs handler.
func NewEvaluationParameterHandler(parameters *service.EvaluationParameterService) *EvaluationParameterHandler {
	return &EvaluationParameterHandler{parameters: parameters}
}

// List godoc
// @Summary List evaluation parameters
// @Tags EvaluationParameters
// @Produce json
// @Param search query string false "Filter by code or name"
// @Success 200 {object} response.Envelope
// @Router /evaluation-parameters [get]
func (h *EvaluationParameterHandler) List(c *gin.Context) {
	parameters, err := h.parameters.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parameters, nil)
}

// Create godoc
// @Summary Create evaluation parameter
// @Tags EvaluationParameters
// @Accept json
// @Produce json
// @Param payload body service.CreateParameterRequest true "Parameter payload"
// @Success 201 {object} response.Envelope
// @Router /evaluation-parameters [post]
func (h *EvaluationParameterHandler) Create(c *gin.Context) {
	var req service.CreateParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	parameter, err := h.parameters.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parameter)
}

// Delete godoc
// @Summary Remove evaluation parameter
// @Tags EvaluationParameters
// @Produce json
// @Param id path string true "Parameter ID"
// @Success 204
// @Router /evaluation-parameters/{id} [delete]
func (h *EvaluationParameterHandler) Delete(c *gin.Context) {
	if err := h.parameters.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignedParameters godoc
// @Summary List a subject's parameter weights
// @Tags EvaluationParameters
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/parameters [get]
func (h *EvaluationParameterHandler) AssignedParameters(c *gin.Context) {
	weights, err := h.parameters.AssignedParameters(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weights, nil)
}

// Assign godoc
// @Summary Replace a subject's parameter weights
// @Tags EvaluationParameters
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body service.AssignParametersRequest true "Desired weight set"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/parameters [put]
func (h *EvaluationParameterHandler) Assign(c *gin.Context) {
	var req service.AssignParametersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	weights, err := h.parameters.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weights, nil)
}
