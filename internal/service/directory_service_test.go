package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/result-api/internal/models"
	appErrors "github.com/campushub/result-api/pkg/errors"
)

type mockDirectorySubjects struct {
	subjects []models.Subject
}

func (m *mockDirectorySubjects) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	var result []models.Subject
	for _, subject := range m.subjects {
		if filter.ProgramID != "" && filter.ProgramID != subject.ProgramID {
			continue
		}
		result = append(result, subject)
	}
	return result, nil
}

type mockDirectoryStudents struct {
	students []models.Student
}

func (m *mockDirectoryStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for _, student := range m.students {
		if student.ID == id {
			return &student, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockDirectoryStudents) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var result []models.Student
	for _, student := range m.students {
		if filter.ProgramID != "" && filter.ProgramID != student.ProgramID {
			continue
		}
		result = append(result, student)
	}
	return result, len(result), nil
}

func TestDirectoryListStudentsPagination(t *testing.T) {
	students := &mockDirectoryStudents{students: []models.Student{
		{ID: "stu-1", ProgramID: "prog-1"},
		{ID: "stu-2", ProgramID: "prog-1"},
	}}
	svc := NewDirectoryService(&mockDirectorySubjects{}, students, &mockProgramReader{})

	result, pagination, err := svc.ListStudents(context.Background(), models.StudentFilter{ProgramID: "prog-1"})
	require.NoError(t, err)
	assert.Len(t, result, 2)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestDirectoryGetStudentMissing(t *testing.T) {
	svc := NewDirectoryService(&mockDirectorySubjects{}, &mockDirectoryStudents{}, &mockProgramReader{})

	_, err := svc.GetStudent(context.Background(), "stu-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDirectoryListSubjectsFilters(t *testing.T) {
	subjects := &mockDirectorySubjects{subjects: []models.Subject{
		{ID: "sub-1", ProgramID: "prog-1"},
		{ID: "sub-2", ProgramID: "prog-2"},
	}}
	svc := NewDirectoryService(subjects, &mockDirectoryStudents{}, &mockProgramReader{})

	result, err := svc.ListSubjects(context.Background(), models.SubjectFilter{ProgramID: "prog-2"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "sub-2", result[0].ID)
}
