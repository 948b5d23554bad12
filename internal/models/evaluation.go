package models

import "time"

// EvaluationParameter describes a rubric dimension (discipline, attendance, ...)
// contributing to a subject's non-academic score pool. Parameters referenced by a
// published snapshot are never hard-deleted, only marked via DeletedAt.
type EvaluationParameter struct {
	ID        string     `db:"id" json:"id"`
	Code      string     `db:"code" json:"code"`
	Name      string     `db:"name" json:"name"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// SubjectParameterWeight assigns an evaluation parameter to a subject with a raw
// weight. Weights are proportions of the 50-point extra pool; they are normalised
// against the subject's weight sum at scoring time, never trusted as absolute.
type SubjectParameterWeight struct {
	ID            string    `db:"id" json:"id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	ParameterID   string    `db:"parameter_id" json:"parameter_id"`
	Weight        float64   `db:"weight" json:"weight"`
	ParameterCode string    `db:"parameter_code" json:"parameter_code"`
	ParameterName string    `db:"parameter_name" json:"parameter_name"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
