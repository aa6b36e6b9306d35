package suggest

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LocalSource is the deterministic fallback generator. It only does
// string/regex analysis of the description and can never fail.
type LocalSource struct{}

// GeneratedTag marks every AI-assisted task, from either path.
const GeneratedTag = "généré_par_ia"

var (
	titleMarkerRe   = regexp.MustCompile(`(?i)\btitle\s*[:=]\s*([^.,;!?\n]+)`)
	firstSentenceRe = regexp.MustCompile(`^[^.!?]+[.!?]`)
	estimateRe      = regexp.MustCompile(`(?i)\bestim(?:ation|é)\s*[:=]\s*(\d+)\s*(min|heure|h|jour)`)
	assigneeRe      = regexp.MustCompile(`(?i)\bassign(?:er|é|e)\s+(?:à|a)\s+([A-Z][a-z]+(?: [A-Z][a-z]+)*)`)
)

// actionVerbs lead the clauses preferred as titles.
var actionVerbs = []string{
	"créer", "développer", "implémenter", "concevoir", "ajouter",
	"modifier", "corriger", "tester", "optimiser",
}

var actionVerbRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(actionVerbs))
	for i, verb := range actionVerbs {
		res[i] = regexp.MustCompile(`(?i)\b` + verb + `\s+[^.!?]+[.!?]?`)
	}
	return res
}()

// complexityWeights adjust the estimated time by ±30 minutes per match.
var complexityWeights = map[string]int{
	"complexe":   2,
	"difficile":  2,
	"approfondi": 2,
	"long":       1,
	"détaillé":   1,
	"simple":     -1,
	"facile":     -1,
	"rapide":     -1,
}

// tagVocabulary is matched as substrings against the lowercased description.
var tagVocabulary = []string{
	"design", "développement", "backend", "frontend", "test", "debug",
	"ux", "ui", "documentation", "optimisation", "api", "database",
	"sécurité", "performance", "mobile", "responsive", "login",
	"authentification", "formulaire",
}

// Generate builds a payload from the description alone.
func (LocalSource) Generate(_ context.Context, description string) (Payload, error) {
	enhanced := description
	if assignee := extractAssignee(description); assignee != "" {
		enhanced += "\n\nAssigné à: " + assignee
	}
	if taskType := extractTaskType(description); taskType != "" {
		enhanced += "\n\nType de tâche: " + taskType
	}

	return Payload{
		Title:         ExtractTitle(description),
		Description:   enhanced,
		Priority:      DeterminePriority(description),
		EstimatedTime: EstimateTime(description),
		Tags:          ExtractTags(description),
	}, nil
}

// ExtractTitle picks a title: an explicit "title:" marker, else the first
// action-verb-led clause, else the first sentence, else the first five
// words. Everything but the explicit marker is truncated to 60 characters.
func ExtractTitle(description string) string {
	if m := titleMarkerRe.FindStringSubmatch(description); m != nil {
		return upperFirst(strings.TrimSpace(m[1]))
	}

	for _, re := range actionVerbRes {
		if m := re.FindString(description); m != "" {
			return truncate(upperFirst(strings.TrimSpace(m)), 60)
		}
	}

	if m := firstSentenceRe.FindString(description); m != "" {
		return truncate(upperFirst(strings.TrimSpace(m)), 60)
	}

	words := strings.Fields(description)
	short := upperFirst(strings.Join(words[:min(5, len(words))], " "))
	if runes := []rune(short); len(runes) > 60 {
		short = string(runes[:60])
	}
	if len(words) > 5 {
		return short + "..."
	}
	return short
}

// DeterminePriority derives a priority from keyword hits.
func DeterminePriority(description string) string {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "urgent") || strings.Contains(d, "critique"):
		return "urgente"
	case strings.Contains(d, "important") || strings.Contains(d, "prioritaire"):
		return "haute"
	case strings.Contains(d, "simple") || strings.Contains(d, "facile"):
		return "basse"
	default:
		return "moyenne"
	}
}

// EstimateTime estimates minutes. An explicit "estimation: N min|h|jour"
// marker wins (hours x60, days x480); otherwise the description length picks
// a base bucket adjusted by 30 minutes per complexity weight, floored at 15.
func EstimateTime(description string) int {
	if m := estimateRe.FindStringSubmatch(description); m != nil {
		value, _ := strconv.Atoi(m[1])
		switch strings.ToLower(m[2]) {
		case "jour":
			return value * 480
		case "h", "heure":
			return value * 60
		default:
			return value
		}
	}

	length := len(description)
	var base int
	switch {
	case length < 50:
		base = 30
	case length < 150:
		base = 60
	case length < 300:
		base = 120
	default:
		base = 240
	}

	complexity := 0
	d := strings.ToLower(description)
	for keyword, weight := range complexityWeights {
		if strings.Contains(d, keyword) {
			complexity += weight
		}
	}

	if estimate := base + complexity*30; estimate > 15 {
		return estimate
	}
	return 15
}

// ExtractTags collects vocabulary hits, derived context tags, and the fixed
// generated-by marker, de-duplicated in order of appearance.
func ExtractTags(description string) []string {
	d := strings.ToLower(description)
	var tags []string

	for _, tag := range tagVocabulary {
		if strings.Contains(d, tag) {
			tags = append(tags, tag)
		}
	}

	if strings.Contains(d, "page") && (strings.Contains(d, "login") || strings.Contains(d, "connexion")) {
		tags = append(tags, "authentification")
	}
	if strings.Contains(d, "base de données") || strings.Contains(d, "database") || strings.Contains(d, "sql") {
		tags = append(tags, "database")
	}

	tags = append(tags, GeneratedTag)

	seen := make(map[string]struct{}, len(tags))
	unique := tags[:0]
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		unique = append(unique, tag)
	}
	return unique
}

func extractAssignee(description string) string {
	if m := assigneeRe.FindStringSubmatch(description); m != nil {
		return m[1]
	}
	return ""
}

func extractTaskType(description string) string {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "page") && (strings.Contains(d, "login") || strings.Contains(d, "connexion")):
		return "Page de connexion"
	case strings.Contains(d, "page") && (strings.Contains(d, "register") || strings.Contains(d, "inscription")):
		return "Page d'inscription"
	case strings.Contains(d, "api") || strings.Contains(d, "endpoint"):
		return "Développement API"
	case strings.Contains(d, "bug") || strings.Contains(d, "erreur"):
		return "Correction de bug"
	case strings.Contains(d, "test"):
		return "Tests"
	case strings.Contains(d, "documentation") || strings.Contains(d, "doc"):
		return "Documentation"
	}
	return ""
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// truncate caps s at n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
