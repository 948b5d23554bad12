package models

import "time"

// SubjectScore is the normalised score of one subject: the direct mark rescaled to
// 50, the weighted extra-parameter pool capped at 50, and their sum out of 100.
type SubjectScore struct {
	SubjectObtained float64 `json:"subject_obtained_out_of_50"`
	ExtraObtained   float64 `json:"extra_param_obtained_out_of_50"`
	FinalMark       float64 `json:"final_mark_out_of_100"`
}

// SubjectResult is one row of a published result's subject breakdown.
type SubjectResult struct {
	SubjectID       string  `json:"subject_id"`
	SubjectCode     string  `json:"subject_code"`
	SubjectName     string  `json:"subject_name"`
	Grade           string  `json:"grade"`
	SubjectObtained float64 `json:"subject_obtained_out_of_50"`
	ExtraObtained   float64 `json:"extra_param_obtained_out_of_50"`
	FinalMark       float64 `json:"final_mark_out_of_100"`
}

// SemesterSummary aggregates a student's normalised scores across all subjects of
// a program semester.
type SemesterSummary struct {
	StudentID     string          `json:"student_id"`
	ProgramID     string          `json:"program_id"`
	Semester      int             `json:"semester"`
	ExamTerm      string          `json:"exam_term"`
	Breakdown     []SubjectResult `json:"subject_breakdown"`
	TotalObtained float64         `json:"total_obtained"`
	TotalFull     float64         `json:"total_full"`
	Percentage    float64         `json:"percentage"`
	GPA           float64         `json:"gpa"`
}

// PublishedResult is the immutable snapshot persisted at publication time. At
// most one live snapshot exists per (student, semester, exam term); later mark
// edits never alter it without an explicit republish.
type PublishedResult struct {
	ID            string          `db:"id" json:"id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	ProgramID     string          `db:"program_id" json:"program_id"`
	Semester      int             `db:"semester" json:"semester"`
	ExamTerm      string          `db:"exam_term" json:"exam_term"`
	TotalObtained float64         `db:"total_obtained" json:"total_obtained"`
	TotalFull     float64         `db:"total_full" json:"total_full"`
	Percentage    float64         `db:"percentage" json:"percentage"`
	GPA           float64         `db:"gpa" json:"gpa"`
	Breakdown     []SubjectResult `db:"-" json:"subject_breakdown"`
	PublishedBy   string          `db:"published_by" json:"published_by"`
	PublishedAt   time.Time       `db:"published_at" json:"published_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// PublishedResultFilter combines optional predicates with AND semantics.
type PublishedResultFilter struct {
	StudentID string
	ProgramID string
	Semester  int
	ExamTerm  string
}

// BulkPublishFailure records why one student's publication failed inside a batch.
type BulkPublishFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// BulkPublishReport summarises a continue-on-error batch publication.
type BulkPublishReport struct {
	Succeeded []string             `json:"succeeded"`
	Failed    []BulkPublishFailure `json:"failed"`
}
