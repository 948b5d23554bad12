package models

import "time"

// SubjectMark is a student's direct performance in a subject for an exam term.
// Obtained/full marks are raw; scoring rescales them to the 50-point direct pool.
type SubjectMark struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	Semester      int       `db:"semester" json:"semester"`
	ExamTerm      string    `db:"exam_term" json:"exam_term"`
	ObtainedMarks float64   `db:"obtained_marks" json:"obtained_marks"`
	FullMarks     float64   `db:"full_marks" json:"full_marks"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ParameterMark is one student's score against a single evaluation parameter of a
// subject for an exam term.
type ParameterMark struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	ParameterID   string    `db:"parameter_id" json:"parameter_id"`
	Semester      int       `db:"semester" json:"semester"`
	ExamTerm      string    `db:"exam_term" json:"exam_term"`
	ObtainedMarks float64   `db:"obtained_marks" json:"obtained_marks"`
	FullMarks     float64   `db:"full_marks" json:"full_marks"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// MarkFilter scopes mark listing queries.
type MarkFilter struct {
	StudentID string
	SubjectID string
	Semester  int
	ExamTerm  string
}
