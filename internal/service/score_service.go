package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/campushub/result-api/internal/models"
	appErrors "github.com/campushub/result-api/pkg/errors"
)

const (
	directPool = 50.0
	extraPool  = 50.0
)

type scoreMarkReader interface {
	FindSubjectMark(ctx context.Context, studentID, subjectID string, semester int, examTerm string) (*models.SubjectMark, error)
	ListParameterMarks(ctx context.Context, studentID, subjectID string, semester int, examTerm string) ([]models.ParameterMark, error)
}

type scoreWeightReader interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectParameterWeight, error)
}

// ScoreService normalises one subject's marks into a 100-point score: the direct
// mark rescaled to a 50-point pool plus the weighted extra-parameter pool, also
// worth 50 regardless of how many parameters are assigned. Normalisation happens
// here and only here; persisted weights are never assumed to sum to 50.
type ScoreService struct {
	marks        scoreMarkReader
	weights      scoreWeightReader
	logger       *zap.Logger
	roundingMode func(float64) float64
}

// NewScoreService constructs ScoreService.
func NewScoreService(marks scoreMarkReader, weights scoreWeightReader, logger *zap.Logger) *ScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{
		marks:        marks,
		weights:      weights,
		logger:       logger,
		roundingMode: func(v float64) float64 { return math.RoundToEven(v*100) / 100 },
	}
}

// ComputeSubjectScore resolves the normalised score for one student/subject/term.
// A missing direct mark row means "not yet entered" and contributes zero; it is
// not an error.
func (s *ScoreService) ComputeSubjectScore(ctx context.Context, studentID, subjectID string, semester int, examTerm string) (*models.SubjectScore, error) {
	direct, err := s.directScore(ctx, studentID, subjectID, semester, examTerm)
	if err != nil {
		return nil, err
	}

	extra, err := s.extraScore(ctx, studentID, subjectID, semester, examTerm)
	if err != nil {
		return nil, err
	}

	score := &models.SubjectScore{
		SubjectObtained: s.roundingMode(direct),
		ExtraObtained:   s.roundingMode(extra),
	}
	score.FinalMark = s.roundingMode(score.SubjectObtained + score.ExtraObtained)
	return score, nil
}

func (s *ScoreService) directScore(ctx context.Context, studentID, subjectID string, semester int, examTerm string) (float64, error) {
	mark, err := s.marks.FindSubjectMark(ctx, studentID, subjectID, semester, examTerm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject mark")
	}
	if mark.FullMarks <= 0 {
		if mark.ObtainedMarks > 0 {
			return 0, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("subject %s has obtained marks without positive full marks", subjectID))
		}
		return 0, nil
	}
	return clamp(mark.ObtainedMarks*directPool/mark.FullMarks, 0, directPool), nil
}

func (s *ScoreService) extraScore(ctx context.Context, studentID, subjectID string, semester int, examTerm string) (float64, error) {
	marks, err := s.marks.ListParameterMarks(ctx, studentID, subjectID, semester, examTerm)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parameter marks")
	}
	if len(marks) == 0 {
		return 0, nil
	}

	weights, err := s.weights.ListBySubject(ctx, subjectID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parameter weights")
	}

	weightByParameter := make(map[string]float64, len(weights))
	totalWeight := 0.0
	for _, weight := range weights {
		weightByParameter[weight.ParameterID] = weight.Weight
		totalWeight += weight.Weight
	}

	// Marks recorded against a subject whose weight pool is empty cannot be
	// normalised; that is corrupt upstream data, not caller input.
	if totalWeight <= 0 {
		return 0, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("subject %s has parameter marks but zero total weight", subjectID))
	}

	sum := 0.0
	for _, mark := range marks {
		weight, ok := weightByParameter[mark.ParameterID]
		if !ok {
			s.logger.Warn("parameter mark without weight assignment skipped",
				zap.String("subject_id", subjectID),
				zap.String("parameter_id", mark.ParameterID),
				zap.String("student_id", studentID))
			continue
		}
		if mark.FullMarks <= 0 {
			return 0, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("parameter %s has non-positive full marks", mark.ParameterID))
		}
		sum += mark.ObtainedMarks / mark.FullMarks * (weight / totalWeight) * extraPool
	}

	return clamp(sum, 0, extraPool), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
