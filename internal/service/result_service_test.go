package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/result-api/internal/models"
	"github.com/campushub/result-api/internal/repository"
	appErrors "github.com/campushub/result-api/pkg/errors"
)

type mockResultRepo struct {
	results       map[string]models.PublishedResult
	forceConflict bool
}

func resultKey(studentID string, semester int, examTerm string) string {
	return fmt.Sprintf("%s|%d|%s", studentID, semester, examTerm)
}

func (m *mockResultRepo) Create(ctx context.Context, result *models.PublishedResult) error {
	if m.forceConflict {
		return repository.ErrDuplicateResult
	}
	if m.results == nil {
		m.results = make(map[string]models.PublishedResult)
	}
	key := resultKey(result.StudentID, result.Semester, result.ExamTerm)
	if _, ok := m.results[key]; ok {
		return repository.ErrDuplicateResult
	}
	if result.ID == "" {
		result.ID = "res-" + result.StudentID
	}
	m.results[key] = *result
	return nil
}

func (m *mockResultRepo) Update(ctx context.Context, result *models.PublishedResult) error {
	for key, existing := range m.results {
		if existing.ID == result.ID {
			m.results[key] = *result
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockResultRepo) FindByKey(ctx context.Context, studentID string, semester int, examTerm string) (*models.PublishedResult, error) {
	if result, ok := m.results[resultKey(studentID, semester, examTerm)]; ok {
		return &result, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockResultRepo) FindByID(ctx context.Context, id string) (*models.PublishedResult, error) {
	for _, result := range m.results {
		if result.ID == id {
			return &result, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockResultRepo) List(ctx context.Context, filter models.PublishedResultFilter) ([]models.PublishedResult, error) {
	var results []models.PublishedResult
	for _, result := range m.results {
		if filter.StudentID != "" && filter.StudentID != result.StudentID {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

type mockStudentDirectory struct {
	students map[string]*models.Student
	order    []string
}

func (m *mockStudentDirectory) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentDirectory) ListByProgram(ctx context.Context, programID string) ([]models.Student, error) {
	var students []models.Student
	for _, id := range m.order {
		if student, ok := m.students[id]; ok && student.ProgramID == programID {
			students = append(students, *student)
		}
	}
	return students, nil
}

type mockProgramReader struct {
	programs map[string]*models.Program
}

func (m *mockProgramReader) FindByID(ctx context.Context, id string) (*models.Program, error) {
	if program, ok := m.programs[id]; ok {
		return program, nil
	}
	return nil, sql.ErrNoRows
}

type mockSubjectLister struct {
	subjects []models.Subject
}

func (m *mockSubjectLister) ListByProgramSemester(ctx context.Context, programID string, semester int) ([]models.Subject, error) {
	return m.subjects, nil
}

type mockScorer struct {
	scores map[string]models.SubjectScore
	errs   map[string]error
}

func (m *mockScorer) ComputeSubjectScore(ctx context.Context, studentID, subjectID string, semester int, examTerm string) (*models.SubjectScore, error) {
	if err, ok := m.errs[studentID]; ok {
		return nil, err
	}
	score, ok := m.scores[subjectID]
	if !ok {
		score = models.SubjectScore{}
	}
	return &score, nil
}

func newResultFixture() (*ResultService, *mockResultRepo) {
	resultRepo := &mockResultRepo{}
	students := &mockStudentDirectory{
		students: map[string]*models.Student{
			"stu-1": {ID: "stu-1", ProgramID: "prog-1", SymbolNo: "1001", FullName: "First Student"},
		},
		order: []string{"stu-1"},
	}
	programs := &mockProgramReader{programs: map[string]*models.Program{
		"prog-1": {ID: "prog-1", Code: "BCS", Name: "Computer Science"},
	}}
	subjects := &mockSubjectLister{subjects: []models.Subject{
		{ID: "sub-1", ProgramID: "prog-1", Semester: 1, Code: "CS101", Name: "Programming"},
		{ID: "sub-2", ProgramID: "prog-1", Semester: 1, Code: "CS102", Name: "Discrete Math"},
		{ID: "sub-3", ProgramID: "prog-1", Semester: 1, Code: "CS103", Name: "Architecture"},
	}}
	scorer := &mockScorer{scores: map[string]models.SubjectScore{
		"sub-1": {SubjectObtained: 40, ExtraObtained: 40, FinalMark: 80},
		"sub-2": {SubjectObtained: 40, ExtraObtained: 40, FinalMark: 80},
		"sub-3": {SubjectObtained: 40, ExtraObtained: 40, FinalMark: 80},
	}}

	svc := NewResultService(resultRepo, students, programs, subjects, scorer, nil, nil, DefaultGradingPolicy(), nil, zap.NewNop())
	return svc, resultRepo
}

func TestAggregateSemesterSummary(t *testing.T) {
	svc, _ := newResultFixture()

	summary, err := svc.Aggregate(context.Background(), "stu-1", 1, "FINAL")
	require.NoError(t, err)

	require.Len(t, summary.Breakdown, 3)
	assert.InDelta(t, 240.0, summary.TotalObtained, 0.001)
	assert.InDelta(t, 300.0, summary.TotalFull, 0.001)
	assert.InDelta(t, 80.0, summary.Percentage, 0.001)
	assert.InDelta(t, 4.0, summary.GPA, 0.001)
	assert.Equal(t, "A", summary.Breakdown[0].Grade)
}

func TestAggregateUnknownStudent(t *testing.T) {
	svc, _ := newResultFixture()

	_, err := svc.Aggregate(context.Background(), "stu-missing", 1, "FINAL")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublishSingleAndConflict(t *testing.T) {
	svc, repo := newResultFixture()
	auth := models.AuthContext{UserID: "admin-1", Role: models.RoleAdmin}
	req := PublishRequest{StudentID: "stu-1", Semester: 1, ExamTerm: "FINAL"}

	result, err := svc.PublishSingle(context.Background(), req, auth)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", result.PublishedBy)
	assert.Len(t, repo.results, 1)

	_, err = svc.PublishSingle(context.Background(), req, auth)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPublishSingleDuplicateRace(t *testing.T) {
	svc, repo := newResultFixture()
	repo.forceConflict = true

	req := PublishRequest{StudentID: "stu-1", Semester: 1, ExamTerm: "FINAL"}
	_, err := svc.PublishSingle(context.Background(), req, models.AuthContext{UserID: "admin-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRepublishKeepsIdentity(t *testing.T) {
	svc, repo := newResultFixture()
	auth := models.AuthContext{UserID: "admin-1", Role: models.RoleAdmin}
	req := PublishRequest{StudentID: "stu-1", Semester: 1, ExamTerm: "FINAL"}

	original, err := svc.PublishSingle(context.Background(), req, auth)
	require.NoError(t, err)

	updated, err := svc.Republish(context.Background(), req, models.AuthContext{UserID: "admin-2"})
	require.NoError(t, err)

	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, original.PublishedAt, updated.PublishedAt)
	assert.Equal(t, "admin-2", updated.PublishedBy)
	assert.Len(t, repo.results, 1)
}

func TestRepublishWithoutSnapshot(t *testing.T) {
	svc, _ := newResultFixture()

	req := PublishRequest{StudentID: "stu-1", Semester: 1, ExamTerm: "FINAL"}
	_, err := svc.Republish(context.Background(), req, models.AuthContext{UserID: "admin-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublishBulkContinuesOnFailure(t *testing.T) {
	resultRepo := &mockResultRepo{}
	students := &mockStudentDirectory{
		students: map[string]*models.Student{},
		order:    []string{"stu-1", "stu-2", "stu-3"},
	}
	for _, id := range students.order {
		students.students[id] = &models.Student{ID: id, ProgramID: "prog-1"}
	}
	programs := &mockProgramReader{programs: map[string]*models.Program{
		"prog-1": {ID: "prog-1"},
	}}
	subjects := &mockSubjectLister{subjects: []models.Subject{{ID: "sub-1", ProgramID: "prog-1"}}}
	scorer := &mockScorer{
		scores: map[string]models.SubjectScore{"sub-1": {FinalMark: 75, SubjectObtained: 40, ExtraObtained: 35}},
		errs:   map[string]error{"stu-2": appErrors.Clone(appErrors.ErrDataIntegrity, "broken marks")},
	}

	svc := NewResultService(resultRepo, students, programs, subjects, scorer, nil, nil, DefaultGradingPolicy(), nil, zap.NewNop())

	report, err := svc.PublishBulk(context.Background(), BulkPublishRequest{ProgramID: "prog-1", Semester: 1, ExamTerm: "FINAL"}, models.AuthContext{UserID: "admin-1"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"stu-1", "stu-3"}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "stu-2", report.Failed[0].StudentID)
	assert.NotEmpty(t, report.Failed[0].Reason)
}

func TestPublishBulkUnknownProgram(t *testing.T) {
	svc, _ := newResultFixture()

	_, err := svc.PublishBulk(context.Background(), BulkPublishRequest{ProgramID: "prog-missing", Semester: 1, ExamTerm: "FINAL"}, models.AuthContext{UserID: "admin-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetPublishedFiltersByStudent(t *testing.T) {
	svc, _ := newResultFixture()
	auth := models.AuthContext{UserID: "admin-1", Role: models.RoleAdmin}
	req := PublishRequest{StudentID: "stu-1", Semester: 1, ExamTerm: "FINAL"}
	_, err := svc.PublishSingle(context.Background(), req, auth)
	require.NoError(t, err)

	results, err := svc.GetPublished(context.Background(), models.PublishedResultFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = svc.GetPublished(context.Background(), models.PublishedResultFilter{StudentID: "stu-2"})
	require.NoError(t, err)
	assert.Empty(t, results)
}
