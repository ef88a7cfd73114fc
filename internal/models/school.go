package models

import (
	"time"

	"github.com/lib/pq"
)

// SchoolType classifies the stages a school teaches.
type SchoolType string

const (
	SchoolTypeElementary SchoolType = "elementary"
	SchoolTypeMiddle     SchoolType = "middle"
	SchoolTypeHigh       SchoolType = "high"
)

// ValidSchoolType reports whether the value is a known school type.
func ValidSchoolType(t string) bool {
	switch SchoolType(t) {
	case SchoolTypeElementary, SchoolTypeMiddle, SchoolTypeHigh:
		return true
	default:
		return false
	}
}

// School represents an institution whose students are billed through the system.
type School struct {
	ID            string         `db:"id" json:"id"`
	NameArabic    string         `db:"name_arabic" json:"name_arabic"`
	NameEnglish   string         `db:"name_english" json:"name_english"`
	Types         pq.StringArray `db:"types" json:"types"`
	Address       string         `db:"address" json:"address"`
	Phone         string         `db:"phone" json:"phone"`
	PrincipalName string         `db:"principal_name" json:"principal_name"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// SchoolFilter encapsulates search parameters for listing schools.
type SchoolFilter struct {
	Search    string
	Type      string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Grade is a catalogue entry mapping a grade code to its stage.
type Grade struct {
	Value      string     `json:"value"`
	Label      string     `json:"label"`
	SchoolType SchoolType `json:"school_type"`
}

// GradeCatalogue is the fixed grade list students may enrol into.
var GradeCatalogue = []Grade{
	{Value: "first_elementary", Label: "First Grade (Elementary)", SchoolType: SchoolTypeElementary},
	{Value: "second_elementary", Label: "Second Grade (Elementary)", SchoolType: SchoolTypeElementary},
	{Value: "third_elementary", Label: "Third Grade (Elementary)", SchoolType: SchoolTypeElementary},
	{Value: "fourth_elementary", Label: "Fourth Grade (Elementary)", SchoolType: SchoolTypeElementary},
	{Value: "fifth_elementary", Label: "Fifth Grade (Elementary)", SchoolType: SchoolTypeElementary},
	{Value: "sixth_elementary", Label: "Sixth Grade (Elementary)", SchoolType: SchoolTypeElementary},
	{Value: "first_middle", Label: "First Grade (Middle)", SchoolType: SchoolTypeMiddle},
	{Value: "second_middle", Label: "Second Grade (Middle)", SchoolType: SchoolTypeMiddle},
	{Value: "third_middle", Label: "Third Grade (Middle)", SchoolType: SchoolTypeMiddle},
	{Value: "fourth_science", Label: "Fourth Grade (Science)", SchoolType: SchoolTypeHigh},
	{Value: "fourth_literary", Label: "Fourth Grade (Literary)", SchoolType: SchoolTypeHigh},
	{Value: "fifth_science", Label: "Fifth Grade (Science)", SchoolType: SchoolTypeHigh},
	{Value: "fifth_literary", Label: "Fifth Grade (Literary)", SchoolType: SchoolTypeHigh},
	{Value: "sixth_science", Label: "Sixth Grade (Science)", SchoolType: SchoolTypeHigh},
	{Value: "sixth_literary", Label: "Sixth Grade (Literary)", SchoolType: SchoolTypeHigh},
}

// GradesForTypes filters the catalogue down to the stages a school teaches.
func GradesForTypes(types []string) []Grade {
	allowed := make(map[SchoolType]struct{}, len(types))
	for _, t := range types {
		allowed[SchoolType(t)] = struct{}{}
	}
	grades := make([]Grade, 0, len(GradeCatalogue))
	for _, g := range GradeCatalogue {
		if _, ok := allowed[g.SchoolType]; ok {
			grades = append(grades, g)
		}
	}
	return grades
}

// ValidGrade reports whether the grade code exists in the catalogue.
func ValidGrade(value string) bool {
	for _, g := range GradeCatalogue {
		if g.Value == value {
			return true
		}
	}
	return false
}
