package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/result-api/internal/models"
	"github.com/campushub/result-api/internal/repository"
	appErrors "github.com/campushub/result-api/pkg/errors"
)

const publishedCacheTTL = 10 * time.Minute

type resultRepository interface {
	Create(ctx context.Context, result *models.PublishedResult) error
	Update(ctx context.Context, result *models.PublishedResult) error
	FindByKey(ctx context.Context, studentID string, semester int, examTerm string) (*models.PublishedResult, error)
	FindByID(ctx context.Context, id string) (*models.PublishedResult, error)
	List(ctx context.Context, filter models.PublishedResultFilter) ([]models.PublishedResult, error)
}

type studentDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByProgram(ctx context.Context, programID string) ([]models.Student, error)
}

type programReader interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type subjectLister interface {
	ListByProgramSemester(ctx context.Context, programID string, semester int) ([]models.Subject, error)
}

type subjectScorer interface {
	ComputeSubjectScore(ctx context.Context, studentID, subjectID string, semester int, examTerm string) (*models.SubjectScore, error)
}

// PublishRequest identifies one semester result to publish.
type PublishRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Semester  int    `json:"semester" validate:"required,gte=1"`
	ExamTerm  string `json:"exam_term" validate:"required"`
}

// BulkPublishRequest publishes results for every active student of a program
// semester.
type BulkPublishRequest struct {
	ProgramID string `json:"program_id" validate:"required"`
	Semester  int    `json:"semester" validate:"required,gte=1"`
	ExamTerm  string `json:"exam_term" validate:"required"`
}

// ResultService aggregates normalised subject scores into semester summaries
// and manages their published snapshots.
type ResultService struct {
	results      resultRepository
	students     studentDirectory
	programs     programReader
	subjects     subjectLister
	scores       subjectScorer
	cache        *CacheService
	metrics      *MetricsService
	grading      GradingPolicy
	validator    *validator.Validate
	logger       *zap.Logger
	roundingMode func(float64) float64
}

// NewResultService constructs ResultService.
func NewResultService(results resultRepository, students studentDirectory, programs programReader, subjects subjectLister, scores subjectScorer, cache *CacheService, metrics *MetricsService, grading GradingPolicy, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{
		results:      results,
		students:     students,
		programs:     programs,
		subjects:     subjects,
		scores:       scores,
		cache:        cache,
		metrics:      metrics,
		grading:      grading,
		validator:    validate,
		logger:       logger,
		roundingMode: func(v float64) float64 { return math.RoundToEven(v*100) / 100 },
	}
}

// Aggregate computes the live semester summary for one student. Nothing is
// persisted; publication takes an explicit call.
func (s *ResultService) Aggregate(ctx context.Context, studentID string, semester int, examTerm string) (*models.SemesterSummary, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.programs.FindByID(ctx, student.ProgramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	subjects, err := s.subjects.ListByProgramSemester(ctx, student.ProgramID, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester subjects")
	}

	summary := &models.SemesterSummary{
		StudentID: studentID,
		ProgramID: student.ProgramID,
		Semester:  semester,
		ExamTerm:  examTerm,
		Breakdown: make([]models.SubjectResult, 0, len(subjects)),
	}

	for _, subject := range subjects {
		score, err := s.scores.ComputeSubjectScore(ctx, studentID, subject.ID, semester, examTerm)
		if err != nil {
			return nil, err
		}
		summary.Breakdown = append(summary.Breakdown, models.SubjectResult{
			SubjectID:       subject.ID,
			SubjectCode:     subject.Code,
			SubjectName:     subject.Name,
			Grade:           s.grading.Letter(score.FinalMark),
			SubjectObtained: score.SubjectObtained,
			ExtraObtained:   score.ExtraObtained,
			FinalMark:       score.FinalMark,
		})
		summary.TotalObtained += score.FinalMark
		summary.TotalFull += 100
	}

	summary.TotalObtained = s.roundingMode(summary.TotalObtained)
	if summary.TotalFull > 0 {
		summary.Percentage = s.roundingMode(summary.TotalObtained / summary.TotalFull * 100)
	}
	summary.GPA = s.roundingMode(s.grading.GPA(summary.Percentage))
	return summary, nil
}

// PublishSingle freezes the current aggregate of one student as an immutable
// snapshot. Publishing an already-published key conflicts; use Republish to
// refresh an existing snapshot.
func (s *ResultService) PublishSingle(ctx context.Context, req PublishRequest, auth models.AuthContext) (*models.PublishedResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}

	if _, err := s.results.FindByKey(ctx, req.StudentID, req.Semester, req.ExamTerm); err == nil {
		s.recordPublication("conflict")
		return nil, appErrors.Clone(appErrors.ErrConflict, "result already published for this student, semester and exam term")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing publication")
	}

	summary, err := s.Aggregate(ctx, req.StudentID, req.Semester, req.ExamTerm)
	if err != nil {
		s.recordPublication("error")
		return nil, err
	}

	result := snapshotFromSummary(summary, auth.UserID)
	if err := s.results.Create(ctx, result); err != nil {
		if errors.Is(err, repository.ErrDuplicateResult) {
			s.recordPublication("conflict")
			return nil, appErrors.Clone(appErrors.ErrConflict, "result already published for this student, semester and exam term")
		}
		s.recordPublication("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist published result")
	}

	s.recordPublication("success")
	s.invalidatePublished(ctx)
	s.logger.Info("result published",
		zap.String("student_id", req.StudentID),
		zap.Int("semester", req.Semester),
		zap.String("exam_term", req.ExamTerm),
		zap.String("published_by", auth.UserID))
	return result, nil
}

// Republish recomputes the aggregate and overwrites an existing snapshot in
// place. The snapshot keeps its ID and original publication timestamp.
func (s *ResultService) Republish(ctx context.Context, req PublishRequest, auth models.AuthContext) (*models.PublishedResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid republish payload")
	}

	existing, err := s.results.FindByKey(ctx, req.StudentID, req.Semester, req.ExamTerm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no published result for this student, semester and exam term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published result")
	}

	summary, err := s.Aggregate(ctx, req.StudentID, req.Semester, req.ExamTerm)
	if err != nil {
		s.recordPublication("error")
		return nil, err
	}

	updated := snapshotFromSummary(summary, auth.UserID)
	updated.ID = existing.ID
	updated.PublishedAt = existing.PublishedAt
	if err := s.results.Update(ctx, updated); err != nil {
		s.recordPublication("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update published result")
	}

	s.recordPublication("republish")
	s.invalidatePublished(ctx)
	s.logger.Info("result republished",
		zap.String("student_id", req.StudentID),
		zap.Int("semester", req.Semester),
		zap.String("exam_term", req.ExamTerm),
		zap.String("published_by", auth.UserID))
	return updated, nil
}

// PublishBulk publishes every active student of a program semester. One
// student's failure never aborts the batch; failures come back in the report
// alongside the successes.
func (s *ResultService) PublishBulk(ctx context.Context, req BulkPublishRequest, auth models.AuthContext) (*models.BulkPublishReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk publish payload")
	}
	if _, err := s.programs.FindByID(ctx, req.ProgramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	students, err := s.students.ListByProgram(ctx, req.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list program students")
	}

	report := &models.BulkPublishReport{
		Succeeded: make([]string, 0, len(students)),
		Failed:    make([]models.BulkPublishFailure, 0),
	}
	for _, student := range students {
		publishReq := PublishRequest{StudentID: student.ID, Semester: req.Semester, ExamTerm: req.ExamTerm}
		if _, err := s.PublishSingle(ctx, publishReq, auth); err != nil {
			report.Failed = append(report.Failed, models.BulkPublishFailure{StudentID: student.ID, Reason: err.Error()})
			continue
		}
		report.Succeeded = append(report.Succeeded, student.ID)
	}

	s.logger.Info("bulk publication finished",
		zap.String("program_id", req.ProgramID),
		zap.Int("semester", req.Semester),
		zap.String("exam_term", req.ExamTerm),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// GetPublished lists published snapshots matching the filter, consulting the
// cache first.
func (s *ResultService) GetPublished(ctx context.Context, filter models.PublishedResultFilter) ([]models.PublishedResult, error) {
	key := fmt.Sprintf("results:published:st=%s:pg=%s:sem=%d:term=%s",
		filter.StudentID, filter.ProgramID, filter.Semester, filter.ExamTerm)

	var cached []models.PublishedResult
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	results, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list published results")
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, results, publishedCacheTTL)
	}
	return results, nil
}

// GetByID loads one published snapshot, for detail views and exports.
func (s *ResultService) GetByID(ctx context.Context, id string) (*models.PublishedResult, error) {
	result, err := s.results.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "published result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published result")
	}
	return result, nil
}

func (s *ResultService) recordPublication(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordPublication(outcome)
	}
}

func (s *ResultService) invalidatePublished(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePattern(ctx, "results:published:*")
	}
}

func snapshotFromSummary(summary *models.SemesterSummary, publishedBy string) *models.PublishedResult {
	return &models.PublishedResult{
		StudentID:     summary.StudentID,
		ProgramID:     summary.ProgramID,
		Semester:      summary.Semester,
		ExamTerm:      summary.ExamTerm,
		TotalObtained: summary.TotalObtained,
		TotalFull:     summary.TotalFull,
		Percentage:    summary.Percentage,
		GPA:           summary.GPA,
		Breakdown:     summary.Breakdown,
		PublishedBy:   publishedBy,
	}
}
