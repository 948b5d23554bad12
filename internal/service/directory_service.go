package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campushub/result-api/internal/models"
	appErrors "github.com/campushub/result-api/pkg/errors"
)

type subjectDirectoryRepo interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
}

type studentDirectoryRepo interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

// DirectoryService exposes read access to the program/subject/student
// directory that the result engine operates on. The directory itself is
// maintained by the admissions service; this API only reads it.
type DirectoryService struct {
	subjects subjectDirectoryRepo
	students studentDirectoryRepo
	programs programReader
}

// NewDirectoryService constructs DirectoryService.
func NewDirectoryService(subjects subjectDirectoryRepo, students studentDirectoryRepo, programs programReader) *DirectoryService {
	return &DirectoryService{subjects: subjects, students: students, programs: programs}
}

// ListSubjects returns subjects matching the filter.
func (s *DirectoryService) ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	subjects, err := s.subjects.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// ListStudents returns a page of students plus pagination metadata.
func (s *DirectoryService) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return students, pagination, nil
}

// GetStudent returns one student by ID.
func (s *DirectoryService) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetProgram returns one program by ID.
func (s *DirectoryService) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}
