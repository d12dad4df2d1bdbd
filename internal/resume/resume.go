// Package resume defines the fixed target schema of structured extraction
// and the record kept for each imported document.
package resume

import "time"

// Source tells which path produced a parsed resume.
type Source string

const (
	// SourceStructured marks data returned by the text-completion service
	// and validated against the target schema.
	SourceStructured Source = "structured"
	// SourceHeuristic marks a low-precision regex guess. Consumers should
	// not trust its name or summary fields the way they trust structured data.
	SourceHeuristic Source = "heuristic"
)

// DefaultSkillLevel is assigned to skills that carry no inferred level.
const DefaultSkillLevel = 3

// Resume is the structured form of an uploaded resume.
type Resume struct {
	FullName   string       `json:"fullName"`
	Title      string       `json:"title"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone"`
	Location   string       `json:"location"`
	Website    string       `json:"website"`
	Summary    string       `json:"summary"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []Skill      `json:"skills"`
}

type Experience struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type Education struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Year   string `json:"year"`
}

type Skill struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Normalize replaces nil collections with empty ones so every field is
// present when encoded.
func (r *Resume) Normalize() {
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Skills == nil {
		r.Skills = []Skill{}
	}
}

// ParseResult is a parsed resume tagged with the path that produced it.
type ParseResult struct {
	Source   Source `json:"source"`
	Resume   Resume `json:"resume"`
	Attempts int    `json:"attempts"`
}

// PreviewLength is the number of characters of extracted text kept on an
// ImportRecord.
const PreviewLength = 2000

// ImportRecord is the outcome of importing one uploaded document.
type ImportRecord struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	FileID      string    `json:"file_id,omitempty"`
	Format      string    `json:"format"`
	TextPreview string    `json:"raw_text"`
	ParseSource Source    `json:"parse_source"`
	Attempts    int       `json:"attempts"`
	Resume      Resume    `json:"resume"`
	CreatedAt   time.Time `json:"created_at"`
}
