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

type markRepository interface {
	FindSubjectMark(ctx context.Context, studentID, subjectID string, semester int, examTerm string) (*models.SubjectMark, error)
	ListSubjectMarks(ctx context.Context, filter models.MarkFilter) ([]models.SubjectMark, error)
	UpsertSubjectMark(ctx context.Context, mark *models.SubjectMark) error
	ListParameterMarks(ctx context.Context, studentID, subjectID string, semester int, examTerm string) ([]models.ParameterMark, error)
	UpsertParameterMark(ctx context.Context, mark *models.ParameterMark) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// SubjectMarkRequest is the payload for recording a direct subject mark.
type SubjectMarkRequest struct {
	StudentID     string  `json:"student_id" validate:"required"`
	SubjectID     string  `json:"subject_id" validate:"required"`
	Semester      int     `json:"semester" validate:"required,gte=1"`
	ExamTerm      string  `json:"exam_term" validate:"required"`
	ObtainedMarks float64 `json:"obtained_marks" validate:"gte=0"`
	FullMarks     float64 `json:"full_marks" validate:"gt=0"`
}

// ParameterMarkRequest is the payload for recording an extra-parameter mark.
type ParameterMarkRequest struct {
	StudentID     string  `json:"student_id" validate:"required"`
	SubjectID     string  `json:"subject_id" validate:"required"`
	ParameterID   string  `json:"parameter_id" validate:"required"`
	Semester      int     `json:"semester" validate:"required,gte=1"`
	ExamTerm      string  `json:"exam_term" validate:"required"`
	ObtainedMarks float64 `json:"obtained_marks" validate:"gte=0"`
	FullMarks     float64 `json:"full_marks" validate:"gt=0"`
}

// MarkService validates and records marks. Writes are upserts keyed on the
// student/subject/semester/term tuple so re-entry corrects instead of
// duplicating.
type MarkService struct {
	marks     markRepository
	students  studentReader
	subjects  subjectReader
	weights   scoreWeightReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarkService constructs MarkService.
func NewMarkService(marks markRepository, students studentReader, subjects subjectReader, weights scoreWeightReader, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{marks: marks, students: students, subjects: subjects, weights: weights, validator: validate, logger: logger}
}

// UpsertSubjectMark records or corrects a direct subject mark.
func (s *MarkService) UpsertSubjectMark(ctx context.Context, req SubjectMarkRequest) (*models.SubjectMark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject mark payload")
	}
	if req.ObtainedMarks > req.FullMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "obtained marks cannot exceed full marks")
	}
	if err := s.checkStudentSubject(ctx, req.StudentID, req.SubjectID); err != nil {
		return nil, err
	}

	mark := &models.SubjectMark{
		StudentID:     req.StudentID,
		SubjectID:     req.SubjectID,
		Semester:      req.Semester,
		ExamTerm:      req.ExamTerm,
		ObtainedMarks: req.ObtainedMarks,
		FullMarks:     req.FullMarks,
	}
	if err := s.marks.UpsertSubjectMark(ctx, mark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save subject mark")
	}
	return mark, nil
}

// UpsertParameterMark records or corrects an extra-parameter mark. The
// parameter must currently be assigned to the subject.
func (s *MarkService) UpsertParameterMark(ctx context.Context, req ParameterMarkRequest) (*models.ParameterMark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parameter mark payload")
	}
	if req.ObtainedMarks > req.FullMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "obtained marks cannot exceed full marks")
	}
	if err := s.checkStudentSubject(ctx, req.StudentID, req.SubjectID); err != nil {
		return nil, err
	}

	weights, err := s.weights.ListBySubject(ctx, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parameter weights")
	}
	assigned := false
	for _, weight := range weights {
		if weight.ParameterID == req.ParameterID {
			assigned = true
			break
		}
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("parameter %s is not assigned to subject %s", req.ParameterID, req.SubjectID))
	}

	mark := &models.ParameterMark{
		StudentID:     req.StudentID,
		SubjectID:     req.SubjectID,
		ParameterID:   req.ParameterID,
		Semester:      req.Semester,
		ExamTerm:      req.ExamTerm,
		ObtainedMarks: req.ObtainedMarks,
		FullMarks:     req.FullMarks,
	}
	if err := s.marks.UpsertParameterMark(ctx, mark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save parameter mark")
	}
	return mark, nil
}

// ListSubjectMarks returns direct marks matching the filter.
func (s *MarkService) ListSubjectMarks(ctx context.Context, filter models.MarkFilter) ([]models.SubjectMark, error) {
	marks, err := s.marks.ListSubjectMarks(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject marks")
	}
	return marks, nil
}

// ListParameterMarks returns extra-parameter marks for one student/subject/term.
func (s *MarkService) ListParameterMarks(ctx context.Context, studentID, subjectID string, semester int, examTerm string) ([]models.ParameterMark, error) {
	marks, err := s.marks.ListParameterMarks(ctx, studentID, subjectID, semester, examTerm)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parameter marks")
	}
	return marks, nil
}

func (s *MarkService) checkStudentSubject(ctx context.Context, studentID, subjectID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.ProgramID != student.ProgramID {
		return appErrors.Clone(appErrors.ErrValidation, "subject does not belong to the student's program")
	}
	return nil
}
