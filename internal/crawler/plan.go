package crawler

import "strings"

// DefaultLanguages are the language qualifiers appended to the keyword in a
// full (non-quick) run. Code search returns at most 1000 results per query,
// so re-issuing the same search under different filters reaches files the
// bare query cannot.
var DefaultLanguages = []string{
	"JavaScript", "Python", "Java", "Go", "Ruby", "PHP", "Shell", "CSV",
	"Markdown", "XML", "JSON", "Text", "CSS", "HTML", "Perl", "ActionScript",
	"Lua", "C", "C++", "C#",
}

// DefaultNoise are extra terms appended to the keyword in a full run. They
// bias results towards configuration and internal files.
var DefaultNoise = []string{
	"api", "private", "secret", "internal", "corp", "development", "production",
}

// BuildPlan returns the ordered list of search queries for keyword.
// The bare quoted keyword always comes first. Unless quick is set, one query
// per language qualifier and one per noise term follow, in that order.
// Blank entries are skipped.
func BuildPlan(keyword string, quick bool, languages, noise []string) []string {
	base := `"` + keyword + `"`
	plan := []string{base}
	if quick {
		return plan
	}

	for _, lang := range languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			plan = append(plan, base+" language:"+lang)
		}
	}
	for _, term := range noise {
		if term = strings.TrimSpace(term); term != "" {
			plan = append(plan, base+" "+term)
		}
	}
	return plan
}
