// Package learning mines successful call transcripts for reusable lines and
// serves them back to the agent trainer.
package learning

import (
	"strings"
	"time"
	"unicode"
)

// Pattern categories, named as the dashboard expects them.
const (
	CategoryObjectionHandling      = "objectionHandling"
	CategoryValuePropositions      = "valuePropositions"
	CategoryQualificationQuestions = "qualificationQuestions"
	CategoryClosingTechniques      = "closingTechniques"
)

// Categories in display order.
var Categories = []string{
	CategoryObjectionHandling,
	CategoryValuePropositions,
	CategoryQualificationQuestions,
	CategoryClosingTechniques,
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Pattern is a line that appeared in calls that went well for an industry.
type Pattern struct {
	ID           int64     `json:"id"`
	Industry     string    `json:"industry"`
	Type         string    `json:"pattern_type"`
	Key          string    `json:"pattern_key"`
	Value        string    `json:"pattern_value"`
	SuccessCount int       `json:"success_count"`
	LastUsed     time.Time `json:"last_used"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Patterns is the GET /ai/patterns body.
type Patterns struct {
	ObjectionHandling      []string `json:"objectionHandling"`
	ValuePropositions      []string `json:"valuePropositions"`
	QualificationQuestions []string `json:"qualificationQuestions"`
	ClosingTechniques      []string `json:"closingTechniques"`
}

func (p *Patterns) slot(category string) *[]string {
	switch category {
	case CategoryObjectionHandling:
		return &p.ObjectionHandling
	case CategoryValuePropositions:
		return &p.ValuePropositions
	case CategoryQualificationQuestions:
		return &p.QualificationQuestions
	case CategoryClosingTechniques:
		return &p.ClosingTechniques
	}
	return nil
}

// SeedPatterns are served for categories nothing has been learned for yet.
func SeedPatterns() Patterns {
	return Patterns{
		ObjectionHandling: []string{
			"I understand your concern about price. Many of our clients felt the same way, and they found the return within just a few months.",
			"That's a valid concern. What if we could show you how this pays for itself through improved efficiency?",
		},
		ValuePropositions: []string{
			"Our mobile solution helps field service businesses reduce paperwork by 80% and increase technician productivity by 25%.",
			"Most clients see a 30% reduction in scheduling errors and a 40% improvement in customer satisfaction.",
		},
		QualificationQuestions: []string{
			"How many field technicians do you currently have on your team?",
			"What's your current process for scheduling and dispatching your field teams?",
		},
		ClosingTechniques: []string{
			"Based on what you've shared, I think we should schedule a demo with our product specialist. How does next Tuesday at 2 PM work for your schedule?",
			"It sounds like we're a good fit. The next step would be a quick follow-up call with our implementation team. Would you prefer morning or afternoon?",
		},
	}
}

// LearnRequest is the body of POST /analytics/learn.
type LearnRequest struct {
	Days     int    `json:"days"`
	Feedback string `json:"feedback"`
}

// LearnResult summarises a learning run.
type LearnResult struct {
	CallsAnalyzed      int `json:"callsAnalyzed"`
	PatternsIdentified int `json:"patternsIdentified"`
}

// Feedback is free text an operator left for the trainer.
type Feedback struct {
	ID        int64     `json:"id"`
	Text      string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

const maxKeyLength = 255

// PatternKey normalises a line so rephrasings that differ only in case,
// spacing or punctuation share a key.
func PatternKey(line string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(line) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%' || r == '\'':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	key := b.String()
	if len(key) > maxKeyLength {
		key = strings.TrimSpace(strings.ToValidUTF8(key[:maxKeyLength], ""))
	}
	return key
}

const minSentenceWords = 4

// Sentences splits a bot line into sentences worth classifying.
func Sentences(line string) []string {
	var out []string
	start := 0
	runes := []rune(line)
	flush := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		start = end
		if len(strings.Fields(s)) >= minSentenceWords {
			out = append(out, s)
		}
	}
	for i, r := range runes {
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		flush(i + 1)
	}
	if start < len(runes) {
		flush(len(runes))
	}
	return out
}
