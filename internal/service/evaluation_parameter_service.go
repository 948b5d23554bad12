package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/result-api/internal/models"
	appErrors "github.com/campushub/result-api/pkg/errors"
)

type parameterRepository interface {
	List(ctx context.Context, search string) ([]models.EvaluationParameter, error)
	FindByID(ctx context.Context, id string) (*models.EvaluationParameter, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, parameter *models.EvaluationParameter) error
	SoftDelete(ctx context.Context, id string) error
}

type weightRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectParameterWeight, error)
	Assign(ctx context.Context, subjectID string, desired []models.SubjectParameterWeight) error
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateParameterRequest captures payload for a new evaluation parameter.
type CreateParameterRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// ParameterWeightRequest pairs a parameter with its desired weight.
type ParameterWeightRequest struct {
	ParameterID string  `json:"parameter_id" validate:"required"`
	Weight      float64 `json:"weight" validate:"gte=0"`
}

// AssignParametersRequest is the full desired weight set for a subject.
type AssignParametersRequest struct {
	Parameters []ParameterWeightRequest `json:"parameters" validate:"dive"`
}

// EvaluationParameterService manages the parameter registry and per-subject
// weight assignments.
type EvaluationParameterService struct {
	parameters parameterRepository
	weights    weightRepository
	subjects   subjectReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewEvaluationParameterService constructs service.
func NewEvaluationParameterService(parameters parameterRepository, weights weightRepository, subjects subjectReader, validate *validator.Validate, logger *zap.Logger) *EvaluationParameterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationParameterService{parameters: parameters, weights: weights, subjects: subjects, validator: validate, logger: logger}
}

// List returns live evaluation parameters.
func (s *EvaluationParameterService) List(ctx context.Context, search string) ([]models.EvaluationParameter, error) {
	parameters, err := s.parameters.List(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluation parameters")
	}
	return parameters, nil
}

// Create inserts a new evaluation parameter; duplicate codes conflict.
func (s *EvaluationParameterService) Create(ctx context.Context, req CreateParameterRequest) (*models.EvaluationParameter, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parameter payload")
	}
	exists, err := s.parameters.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate parameter code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("parameter code %s already in use", req.Code))
	}
	parameter := &models.EvaluationParameter{Code: req.Code, Name: req.Name}
	if err := s.parameters.Create(ctx, parameter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation parameter")
	}
	return parameter, nil
}

// Delete soft-removes a parameter. Rows stay behind because published snapshots
// may still reference them.
func (s *EvaluationParameterService) Delete(ctx context.Context, id string) error {
	if err := s.parameters.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "evaluation parameter not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete evaluation parameter")
	}
	return nil
}

// AssignedParameters returns the weight assignments of a subject. Returned
// weights are raw; consumers normalise against their sum.
func (s *EvaluationParameterService) AssignedParameters(ctx context.Context, subjectID string) ([]models.SubjectParameterWeight, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	weights, err := s.weights.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parameter weights")
	}
	return weights, nil
}

// Assign reconciles a subject's weight assignments with the desired set.
// Parameters omitted from the request are unassigned, changed weights updated,
// and new ones inserted, all in one transaction. Submitting the same set twice
// leaves the persisted weights unchanged.
func (s *EvaluationParameterService) Assign(ctx context.Context, subjectID string, req AssignParametersRequest) ([]models.SubjectParameterWeight, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	seen := make(map[string]struct{}, len(req.Parameters))
	for _, parameter := range req.Parameters {
		if _, ok := seen[parameter.ParameterID]; ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("duplicate parameter %s in assignment", parameter.ParameterID))
		}
		seen[parameter.ParameterID] = struct{}{}
	}

	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	desired := make([]models.SubjectParameterWeight, 0, len(req.Parameters))
	for _, parameter := range req.Parameters {
		record, err := s.parameters.FindByID(ctx, parameter.ParameterID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("evaluation parameter %s not found", parameter.ParameterID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation parameter")
		}
		if record.DeletedAt != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("evaluation parameter %s is removed", parameter.ParameterID))
		}
		desired = append(desired, models.SubjectParameterWeight{ParameterID: parameter.ParameterID, Weight: parameter.Weight})
	}

	if err := s.weights.Assign(ctx, subjectID, desired); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign parameter weights")
	}

	weights, err := s.weights.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload parameter weights")
	}
	return weights, nil
}
