package parse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/soochol/hydrahunt/internal/resume"
)

const (
	maxNameLength    = 80
	maxSummaryLength = 1500
	minPhoneDigits   = 8
)

// SkillVocabulary is the closed set of terms the heuristic parser detects.
var SkillVocabulary = []string{
	"JavaScript", "TypeScript", "React", "Node", "Python",
	"AWS", "Docker", "Kubernetes", "SQL", "NoSQL",
}

var (
	emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\-\s().]{7,}\d`)

	skillPatterns = compileSkillPatterns(SkillVocabulary)
)

type skillPattern struct {
	name string
	re   *regexp.Regexp
}

func compileSkillPatterns(vocab []string) []skillPattern {
	out := make([]skillPattern, 0, len(vocab))
	for _, name := range vocab {
		out = append(out, skillPattern{
			name: name,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`),
		})
	}
	return out
}

// Heuristic derives a best-effort resume from free text without any
// external service. It never fails; fields it cannot derive are empty.
// The name guess is simply the text before the first period.
func Heuristic(text string) resume.Resume {
	t := strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")

	r := resume.Resume{
		FullName: truncateRunes(strings.TrimSpace(strings.SplitN(t, ".", 2)[0]), maxNameLength),
		Email:    emailPattern.FindString(t),
		Phone:    findPhone(t),
		Summary:  truncateRunes(t, maxSummaryLength),
	}
	for _, sp := range skillPatterns {
		if sp.re.MatchString(t) {
			r.Skills = append(r.Skills, resume.Skill{
				ID:    uuid.NewString(),
				Name:  sp.name,
				Level: resume.DefaultSkillLevel,
			})
		}
	}
	r.Normalize()
	return r
}

func findPhone(t string) string {
	for _, m := range phonePattern.FindAllString(t, -1) {
		digits := 0
		for _, c := range m {
			if c >= '0' && c <= '9' {
				digits++
			}
		}
		if digits >= minPhoneDigits {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
