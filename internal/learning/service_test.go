package learning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/llm"
	"github.com/wolfman30/outreach-ai-platform/internal/settings"
)

const (
	mobileQuestion = "Quick question: do your field crews use mobile phones or tablets for work?"
	pitch          = "We help roofing companies like yours cut paperwork and keep field teams in sync with simple mobile tools."
	closer         = "What day and time works best for you?"
	reassurance    = "It's just a quick 15 minute call with no commitment."
)

type fixture struct {
	store *MemoryStore
	repo  *leads.InMemoryRepository
	logs  *calllogs.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: NewMemoryStore(), repo: leads.NewInMemoryRepository(), logs: calllogs.NewMemoryStore()}
	ctx := context.Background()

	qualified := f.lead(t, leads.CreateLeadRequest{Name: "Acme Roofing", Phone: "555-0100", Industry: "Roofing"})
	_, err := f.repo.Update(ctx, qualified.ID, &leads.UpdateLeadRequest{QualificationStatus: leads.StringPtr(leads.QualificationQualified)})
	require.NoError(t, err)
	booked := f.lead(t, leads.CreateLeadRequest{Name: "Bolt Electric", Phone: "555-0101", Industry: "Electrical", Status: leads.StatusAppointmentSet})
	lost := f.lead(t, leads.CreateLeadRequest{Name: "Gone Plumbing", Phone: "555-0102", Industry: "Plumbing", Status: leads.StatusCompleted})

	f.log(t, qualified.ID, calllogs.StatusStarted, calllogs.BotLine("Hello, is this Acme? "+mobileQuestion))
	f.log(t, qualified.ID, calllogs.StatusInProgress, calllogs.LeadLine("Yes, about 20 of them."))
	f.log(t, qualified.ID, calllogs.StatusInProgress, calllogs.BotLine("That's great. "+pitch+" "+closer))
	f.log(t, booked.ID, calllogs.StatusStarted, calllogs.BotLine(mobileQuestion))
	f.log(t, booked.ID, calllogs.StatusInProgress, calllogs.BotLine(reassurance))
	f.log(t, lost.ID, calllogs.StatusStarted, calllogs.BotLine("Our tools save you twenty hours of paperwork a week."))
	return f
}

func (f *fixture) lead(t *testing.T, req leads.CreateLeadRequest) *leads.Lead {
	t.Helper()
	l, err := f.repo.Create(context.Background(), &req)
	require.NoError(t, err)
	return l
}

func (f *fixture) log(t *testing.T, leadID int64, status, transcript string) {
	t.Helper()
	_, err := f.logs.Create(context.Background(), &calllogs.CallLog{LeadID: leadID, CallStatus: status, Transcript: transcript})
	require.NoError(t, err)
}

func (f *fixture) service(opts ...Option) *Service {
	return NewService(f.store, f.repo, f.logs, nil, opts...)
}

func TestLearnRecordsSuccessfulLines(t *testing.T) {
	f := newFixture(t)
	svc := f.service()
	ctx := context.Background()

	res, err := svc.Learn(ctx, LearnRequest{Feedback: "  keep replies shorter "})
	require.NoError(t, err)
	assert.Equal(t, LearnResult{CallsAnalyzed: 2, PatternsIdentified: 5}, res)
	require.Len(t, f.store.Feedback(), 1)
	assert.Equal(t, "keep replies shorter", f.store.Feedback()[0].Text)

	p, err := svc.Patterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{mobileQuestion}, p.QualificationQuestions)
	assert.Equal(t, []string{pitch}, p.ValuePropositions)
	assert.Equal(t, []string{closer}, p.ClosingTechniques)
	assert.Equal(t, []string{reassurance}, p.ObjectionHandling)

	_, err = svc.Learn(ctx, LearnRequest{Days: 7})
	require.NoError(t, err)
	learned, err := f.store.ListPatterns(ctx)
	require.NoError(t, err)
	require.Len(t, learned, 5)
	for _, lp := range learned {
		assert.Equal(t, 2, lp.SuccessCount, lp.Value)
	}
}

func TestPatternsFallBackToSeeds(t *testing.T) {
	svc := NewService(NewMemoryStore(), leads.NewInMemoryRepository(), calllogs.NewMemoryStore(), nil)
	p, err := svc.Patterns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SeedPatterns(), p)
}

func TestPatternsFillsOnlyEmptyCategories(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertPattern(ctx, "Roofing", CategoryClosingTechniques, PatternKey(closer), closer, fixedTime))
	require.NoError(t, store.UpsertPattern(ctx, "Plumbing", CategoryClosingTechniques, PatternKey(closer), closer, fixedTime))

	p, err := NewService(store, leads.NewInMemoryRepository(), calllogs.NewMemoryStore(), nil).Patterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{closer}, p.ClosingTechniques)
	assert.Equal(t, SeedPatterns().ValuePropositions, p.ValuePropositions)
}

func TestLearnValidatesDays(t *testing.T) {
	svc := newFixture(t).service()
	for _, days := range []int{-1, 366} {
		_, err := svc.Learn(context.Background(), LearnRequest{Days: days})
		assert.ErrorIs(t, err, ErrInvalidDays)
	}
}

type staticSettings settings.Bag

func (s staticSettings) Snapshot(ctx context.Context) (settings.Snapshot, error) {
	return settings.NewSnapshot(settings.Bag(s)), nil
}

type fakeFactory struct {
	client   llm.Client
	provider *string
}

func (f fakeFactory) Client(ctx context.Context, provider, apiKey string) (llm.Client, error) {
	if f.provider != nil {
		*f.provider = provider
	}
	return f.client, nil
}

func TestLearnUsesModelWhenConfigured(t *testing.T) {
	f := newFixture(t)
	var prompts []string
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (llm.Response, error) {
		prompts = append(prompts, req.Messages[0].Content)
		return llm.Response{Text: `{"labels":[{"index":1,"category":"qualificationQuestions"}]}`}, nil
	})
	svc := f.service(WithModel(staticSettings{settings.KeyLLMAPIKey: "key"}, fakeFactory{client: client}))

	res, err := svc.Learn(context.Background(), LearnRequest{})
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "0. Hello, is this Acme?\n1. "+mobileQuestion)
	// The question was seen for two industries.
	assert.Equal(t, 2, res.PatternsIdentified)
}

func TestLearnUsesBedrockProviderWithoutKey(t *testing.T) {
	f := newFixture(t)
	var provider string
	calls := 0
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (llm.Response, error) {
		calls++
		return llm.Response{Text: `{"labels":[]}`}, nil
	})
	svc := f.service(WithModel(staticSettings{settings.KeyLLMProvider: "bedrock"}, fakeFactory{client: client, provider: &provider}))

	_, err := svc.Learn(context.Background(), LearnRequest{})
	require.NoError(t, err)
	assert.Equal(t, "bedrock", provider)
	assert.Equal(t, 1, calls)
}

func TestModelClassifierFallsBackToKeywords(t *testing.T) {
	sentences := []string{pitch, closer}
	failing := NewModelClassifier(llm.ClientFunc(func(ctx context.Context, req llm.Request) (llm.Response, error) {
		return llm.Response{}, errors.New("timeout")
	}), nil)
	labels, err := failing.Classify(context.Background(), sentences)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: CategoryValuePropositions, 1: CategoryClosingTechniques}, labels)

	sloppy := NewModelClassifier(llm.ClientFunc(func(ctx context.Context, req llm.Request) (llm.Response, error) {
		return llm.Response{Text: `{"labels":[{"index":1,"category":"closingTechniques"},{"index":7,"category":"valuePropositions"},{"index":0,"category":"smallTalk"}]}`}, nil
	}), nil)
	labels, err = sloppy.Classify(context.Background(), sentences)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: CategoryClosingTechniques}, labels)
}
