package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wolfman30/outreach-ai-platform/internal/llm"
	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// Classifier labels sentences with a category. Unlabelled sentences are
// omitted from the result, which is keyed by sentence index.
type Classifier interface {
	Classify(ctx context.Context, sentences []string) (map[int]string, error)
}

// Rules are checked in order; the first match wins.
var keywordRules = []struct {
	category string
	re       *regexp.Regexp
}{
	{CategoryObjectionHandling, regexp.MustCompile(`(?i)\b(totally understand|completely understand|concern|valid point|no commitment|i hear you|fair enough|no pressure|pays for itself)\b|\bi understand[.,!]`)},
	{CategoryClosingTechniques, regexp.MustCompile(`(?i)\b(schedule|appointment|demo|what day|what time|which day|i have you down|set up a|next step|calendar|confirmation)\b`)},
	{CategoryQualificationQuestions, regexp.MustCompile(`(?i)(\bhow many\b|\bdo your\b|\bdoes your\b|\bwhat's your\b|\bwhat is your\b|\bare you\b|\bdo you\b).*\?\s*$`)},
	{CategoryValuePropositions, regexp.MustCompile(`(?i)\b(we help|save|saves|reduce|increase|improve|productivity|paperwork|efficien\w*|in sync|roi|return)\b`)},
}

// KeywordClassifier labels sentences with fixed phrase rules.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(ctx context.Context, sentences []string) (map[int]string, error) {
	out := make(map[int]string, len(sentences))
	for i, s := range sentences {
		if c := classifyKeywords(s); c != "" {
			out[i] = c
		}
	}
	return out, nil
}

func classifyKeywords(s string) string {
	for _, rule := range keywordRules {
		if rule.re.MatchString(s) {
			return rule.category
		}
	}
	return ""
}

const classifierPrompt = `You label lines spoken by a sales agent on successful outbound calls.
Categories: objectionHandling, valuePropositions, qualificationQuestions, closingTechniques.
Skip greetings, filler and anything that fits no category.
Respond with only a JSON object: {"labels": [{"index": 0, "category": "valuePropositions"}]}`

// ModelClassifier asks the language model and falls back to keywords.
type ModelClassifier struct {
	client   llm.Client
	fallback Classifier
	logger   *logging.Logger
}

func NewModelClassifier(client llm.Client, logger *logging.Logger) *ModelClassifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &ModelClassifier{client: client, fallback: KeywordClassifier{}, logger: logger}
}

func (c *ModelClassifier) Classify(ctx context.Context, sentences []string) (map[int]string, error) {
	if len(sentences) == 0 {
		return map[int]string{}, nil
	}
	labels, err := c.classify(ctx, sentences)
	if err != nil {
		c.logger.Warn("pattern classifier model failed, using keywords", "error", err)
		return c.fallback.Classify(ctx, sentences)
	}
	return labels, nil
}

func (c *ModelClassifier) classify(ctx context.Context, sentences []string) (map[int]string, error) {
	var b strings.Builder
	for i, s := range sentences {
		fmt.Fprintf(&b, "%d. %s\n", i, s)
	}
	resp, err := c.client.Complete(ctx, llm.Request{
		System:      []string{classifierPrompt},
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: b.String()}},
		MaxTokens:   2048,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}
	raw, ok := llm.ExtractJSON(resp.Text)
	if !ok {
		return nil, errors.New("learning: no json object in classifier reply")
	}
	var parsed struct {
		Labels []struct {
			Index    int    `json:"index"`
			Category string `json:"category"`
		} `json:"labels"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("learning: decode classifier reply: %w", err)
	}
	out := make(map[int]string, len(parsed.Labels))
	for _, l := range parsed.Labels {
		if l.Index < 0 || l.Index >= len(sentences) || !ValidCategory(l.Category) {
			continue
		}
		out[l.Index] = l.Category
	}
	return out, nil
}
