package pipeline

import "strings"

// ParsedAnalysis holds the fields recovered from the provider's
// semi-structured response. Absent sections stay empty.
type ParsedAnalysis struct {
	Overview          string
	Summary           string
	ActionPoints      []string
	OpenQuestions     []string
	DetectedLanguages []string
	MeetingType       string
	Transcript        string
}

// sectionAliases maps each accepted marker label to its canonical section.
// The set is fixed; anything else is treated as content, not a marker.
var sectionAliases = map[string]string{
	"OVERVIEW":           "overview",
	"SUMMARY":            "summary",
	"ACTION POINTS":      "actions",
	"ACTION ITEMS":       "actions",
	"OPEN QUESTIONS":     "questions",
	"QUESTIONS":          "questions",
	"DETECTED LANGUAGES": "languages",
	"LANGUAGES":          "languages",
	"MEETING TYPE":       "type",
	"TRANSCRIPT":         "transcript",
	"FULL TRANSCRIPT":    "transcript",
}

// Parser extracts canonical analysis fields from LLM output using section
// markers. Parsing is tolerant: a missing or mangled section leaves its
// field empty instead of failing, so a partial response still yields a
// partial analysis.
type Parser struct{}

// NewParser creates a parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse splits the response into sections and normalizes each one.
func (p *Parser) Parse(response string) *ParsedAnalysis {
	result := &ParsedAnalysis{}
	sections := map[string][]string{}

	current := ""
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)

		// Code fences are formatting noise from the model, never content.
		if strings.HasPrefix(trimmed, "```") {
			continue
		}

		if section, ok := matchMarker(trimmed); ok {
			current = section
			continue
		}
		if current == "" || trimmed == "" {
			continue
		}
		sections[current] = append(sections[current], trimmed)
	}

	result.Overview = strings.Join(sections["overview"], "\n")
	result.Summary = strings.Join(sections["summary"], "\n")
	result.ActionPoints = parseList(sections["actions"])
	result.OpenQuestions = parseList(sections["questions"])
	result.DetectedLanguages = parseLanguages(sections["languages"])
	result.MeetingType = firstLine(sections["type"])
	result.Transcript = strings.Join(sections["transcript"], "\n")

	return result
}

// matchMarker reports whether a line is a section marker. Heading prefixes
// (#, *, -) and trailing colons are stripped before matching so "## Summary:"
// and "SUMMARY" both count.
func matchMarker(line string) (string, bool) {
	cleaned := strings.TrimLeft(line, "#*- \t")
	cleaned = strings.TrimRight(cleaned, ": \t")
	cleaned = strings.TrimSpace(strings.ToUpper(cleaned))
	if cleaned == "" {
		return "", false
	}
	section, ok := sectionAliases[cleaned]
	return section, ok
}

// parseList turns section lines into list items, stripping bullet and
// numbering prefixes. Unprefixed lines count as items too.
func parseList(lines []string) []string {
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		item := stripBullet(line)
		if item == "" || item == "none" || item == "None" {
			continue
		}
		items = append(items, item)
	}
	return items
}

func stripBullet(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "- ")
	s = strings.TrimPrefix(s, "* ")
	s = strings.TrimPrefix(s, "• ")

	// Numbered prefixes like "1." or "12)".
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// parseLanguages accepts either one comma-separated line or one language per
// bullet.
func parseLanguages(lines []string) []string {
	var langs []string
	for _, item := range parseList(lines) {
		for _, lang := range strings.Split(item, ",") {
			lang = strings.TrimSpace(lang)
			if lang != "" {
				langs = append(langs, lang)
			}
		}
	}
	return langs
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return stripBullet(lines[0])
}
