package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/result-api/internal/models"
	appErrors "github.com/campushub/result-api/pkg/errors"
)

type mockMarkRepo struct {
	subjectMarks   []models.SubjectMark
	parameterMarks []models.ParameterMark
}

func (m *mockMarkRepo) FindSubjectMark(ctx context.Context, studentID, subjectID string, semester int, examTerm string) (*models.SubjectMark, error) {
	for _, mark := range m.subjectMarks {
		if mark.StudentID == studentID && mark.SubjectID == subjectID && mark.Semester == semester && mark.ExamTerm == examTerm {
			return &mark, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMarkRepo) ListSubjectMarks(ctx context.Context, filter models.MarkFilter) ([]models.SubjectMark, error) {
	var result []models.SubjectMark
	for _, mark := range m.subjectMarks {
		if filter.StudentID != "" && filter.StudentID != mark.StudentID {
			continue
		}
		if filter.SubjectID != "" && filter.SubjectID != mark.SubjectID {
			continue
		}
		result = append(result, mark)
	}
	return result, nil
}

func (m *mockMarkRepo) UpsertSubjectMark(ctx context.Context, mark *models.SubjectMark) error {
	for i, existing := range m.subjectMarks {
		if existing.StudentID == mark.StudentID && existing.SubjectID == mark.SubjectID && existing.Semester == mark.Semester && existing.ExamTerm == mark.ExamTerm {
			m.subjectMarks[i] = *mark
			return nil
		}
	}
	m.subjectMarks = append(m.subjectMarks, *mark)
	return nil
}

func (m *mockMarkRepo) ListParameterMarks(ctx context.Context, studentID, subjectID string, semester int, examTerm string) ([]models.ParameterMark, error) {
	var result []models.ParameterMark
	for _, mark := range m.parameterMarks {
		if mark.StudentID == studentID && mark.SubjectID == subjectID {
			result = append(result, mark)
		}
	}
	return result, nil
}

func (m *mockMarkRepo) UpsertParameterMark(ctx context.Context, mark *models.ParameterMark) error {
	for i, existing := range m.parameterMarks {
		if existing.StudentID == mark.StudentID && existing.SubjectID == mark.SubjectID && existing.ParameterID == mark.ParameterID {
			m.parameterMarks[i] = *mark
			return nil
		}
	}
	m.parameterMarks = append(m.parameterMarks, *mark)
	return nil
}

func newMarkFixture() (*MarkService, *mockMarkRepo) {
	marks := &mockMarkRepo{}
	students := &mockStudentDirectory{
		students: map[string]*models.Student{
			"stu-1": {ID: "stu-1", ProgramID: "prog-1"},
		},
		order: []string{"stu-1"},
	}
	subjects := &mockSubjectReader{subjects: map[string]*models.Subject{
		"sub-1": {ID: "sub-1", ProgramID: "prog-1"},
		"sub-x": {ID: "sub-x", ProgramID: "prog-other"},
	}}
	weights := &mockWeightReader{weights: map[string][]models.SubjectParameterWeight{
		"sub-1": {{ParameterID: "par-att", Weight: 30}},
	}}
	svc := NewMarkService(marks, students, subjects, weights, nil, zap.NewNop())
	return svc, marks
}

func TestUpsertSubjectMarkReplacesExisting(t *testing.T) {
	svc, repo := newMarkFixture()
	req := SubjectMarkRequest{StudentID: "stu-1", SubjectID: "sub-1", Semester: 1, ExamTerm: "FINAL", ObtainedMarks: 30, FullMarks: 50}

	_, err := svc.UpsertSubjectMark(context.Background(), req)
	require.NoError(t, err)

	req.ObtainedMarks = 45
	mark, err := svc.UpsertSubjectMark(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, repo.subjectMarks, 1)
	assert.InDelta(t, 45.0, mark.ObtainedMarks, 0.001)
}

func TestUpsertSubjectMarkObtainedExceedsFull(t *testing.T) {
	svc, _ := newMarkFixture()

	_, err := svc.UpsertSubjectMark(context.Background(), SubjectMarkRequest{
		StudentID: "stu-1", SubjectID: "sub-1", Semester: 1, ExamTerm: "FINAL", ObtainedMarks: 60, FullMarks: 50,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpsertSubjectMarkWrongProgram(t *testing.T) {
	svc, _ := newMarkFixture()

	_, err := svc.UpsertSubjectMark(context.Background(), SubjectMarkRequest{
		StudentID: "stu-1", SubjectID: "sub-x", Semester: 1, ExamTerm: "FINAL", ObtainedMarks: 10, FullMarks: 50,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpsertParameterMarkRequiresAssignment(t *testing.T) {
	svc, _ := newMarkFixture()

	_, err := svc.UpsertParameterMark(context.Background(), ParameterMarkRequest{
		StudentID: "stu-1", SubjectID: "sub-1", ParameterID: "par-unknown", Semester: 1, ExamTerm: "FINAL", ObtainedMarks: 10, FullMarks: 20,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpsertParameterMarkAssigned(t *testing.T) {
	svc, repo := newMarkFixture()

	mark, err := svc.UpsertParameterMark(context.Background(), ParameterMarkRequest{
		StudentID: "stu-1", SubjectID: "sub-1", ParameterID: "par-att", Semester: 1, ExamTerm: "FINAL", ObtainedMarks: 18, FullMarks: 20,
	})
	require.NoError(t, err)
	assert.InDelta(t, 18.0, mark.ObtainedMarks, 0.001)
	assert.Len(t, repo.parameterMarks, 1)
}

func TestUpsertSubjectMarkUnknownStudent(t *testing.T) {
	svc, _ := newMarkFixture()

	_, err := svc.UpsertSubjectMark(context.Background(), SubjectMarkRequest{
		StudentID: "stu-missing", SubjectID: "sub-1", Semester: 1, ExamTerm: "FINAL", ObtainedMarks: 10, FullMarks: 50,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
