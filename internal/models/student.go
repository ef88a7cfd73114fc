package models

import "time"

// Student represents an enrolled learner and the tuition agreed at enrollment.
type Student struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	Grade        string    `db:"grade" json:"grade"`
	ClassSection string    `db:"class_section" json:"class_section"`
	TotalFee     float64   `db:"total_fee" json:"total_fee"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	SchoolID  string
	Grade     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information joined with its school names.
type StudentDetail struct {
	Student
	SchoolNameArabic  *string `db:"school_name_arabic" json:"school_name_arabic,omitempty"`
	SchoolNameEnglish *string `db:"school_name_english" json:"school_name_english,omitempty"`
}
