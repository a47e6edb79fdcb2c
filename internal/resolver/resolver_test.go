package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handbook-rag/internal/models"
)

type fakeQA struct {
	answer      string
	results     []models.SearchResult
	err         error
	gotQuestion string
}

func (f *fakeQA) Answer(_ context.Context, question string) (string, []models.SearchResult, error) {
	f.gotQuestion = question
	return f.answer, f.results, f.err
}

type fakeFallback struct {
	answer      string
	err         error
	called      bool
	gotQuestion string
}

func (f *fakeFallback) Answer(_ context.Context, question string) (string, error) {
	f.called = true
	f.gotQuestion = question
	return f.answer, f.err
}

type fakeEnhancer struct {
	enhanced string
	err      error
}

func (f *fakeEnhancer) Enhance(_ context.Context, _, _, _ string) (string, error) {
	return f.enhanced, f.err
}

type fakeSink struct {
	exchanges []models.QAExchange
	err       error
}

func (f *fakeSink) StoreExchange(_ context.Context, exchange models.QAExchange) error {
	f.exchanges = append(f.exchanges, exchange)
	return f.err
}

func someResults(n int) []models.SearchResult {
	results := make([]models.SearchResult, n)
	for i := range results {
		results[i] = models.SearchResult{Content: "chunk " + string(rune('a'+i))}
	}
	return results
}

func TestResolvePassesQuestionThroughUnchanged(t *testing.T) {
	qa := &fakeQA{answer: "Stop at the red light.", results: someResults(2)}
	r := NewResolver(qa, &fakeFallback{}, nil)

	result, err := r.Resolve(context.Background(), "", "What does a red light mean?")
	require.NoError(t, err)

	assert.Equal(t, "What does a red light mean?", qa.gotQuestion)
	assert.Equal(t, "Stop at the red light.", result.Answer)
	assert.NotEmpty(t, result.SessionID)
}

func TestFollowUpRewriteUsesPriorTurn(t *testing.T) {
	qa := &fakeQA{answer: "Find a safe place to stop.", results: someResults(1)}
	r := NewResolver(qa, &fakeFallback{}, nil)
	r.Contexts.Set(DefaultSessionKey, models.Turn{
		LastQuestion: "What do I do if I'm tired?",
		LastAnswer:   "Pull over and rest.",
	})

	_, err := r.Resolve(context.Background(), "", "What should I do then?")
	require.NoError(t, err)

	want := "Previous question: What do I do if I'm tired?\nPrevious answer: Pull over and rest.\nFollow-up question: What should I do then?"
	assert.Equal(t, want, qa.gotQuestion)
}

func TestFollowUpWithoutPriorTurnIsNotRewritten(t *testing.T) {
	qa := &fakeQA{answer: "ok"}
	r := NewResolver(qa, &fakeFallback{}, nil)

	_, err := r.Resolve(context.Background(), "", "What should I do then?")
	require.NoError(t, err)

	assert.Equal(t, "What should I do then?", qa.gotQuestion)
}

func TestNonFollowUpQuestionIgnoresPriorTurn(t *testing.T) {
	qa := &fakeQA{answer: "ok"}
	r := NewResolver(qa, &fakeFallback{}, nil)
	r.Contexts.Set(DefaultSessionKey, models.Turn{LastQuestion: "q", LastAnswer: "a"})

	_, err := r.Resolve(context.Background(), "", "What is the speed limit in a school zone?")
	require.NoError(t, err)

	assert.Equal(t, "What is the speed limit in a school zone?", qa.gotQuestion)
}

func TestClearContextResetsFollowUpBehavior(t *testing.T) {
	qa := &fakeQA{answer: "ok"}
	r := NewResolver(qa, &fakeFallback{}, nil)
	r.Contexts.Set(DefaultSessionKey, models.Turn{LastQuestion: "q", LastAnswer: "a"})

	r.ClearContext("")

	_, err := r.Resolve(context.Background(), "", "What should I do then?")
	require.NoError(t, err)
	assert.Equal(t, "What should I do then?", qa.gotQuestion)
}

func TestSessionKeysIsolateConversations(t *testing.T) {
	qa := &fakeQA{answer: "ok"}
	r := NewResolver(qa, &fakeFallback{}, nil)
	r.Contexts.Set("alice", models.Turn{LastQuestion: "q", LastAnswer: "a"})

	// bob has no prior turn, so no rewrite even on a follow-up phrase.
	_, err := r.Resolve(context.Background(), "bob", "What should I do then?")
	require.NoError(t, err)
	assert.Equal(t, "What should I do then?", qa.gotQuestion)
}

func TestFallbackFiresOnIDontKnow(t *testing.T) {
	qa := &fakeQA{answer: "I don't know.", results: someResults(4)}
	fallback := &fakeFallback{answer: "General guidance: drive carefully."}
	r := NewResolver(qa, fallback, nil)

	result, err := r.Resolve(context.Background(), "", "asdkjasdkj nonsense query")
	require.NoError(t, err)

	assert.True(t, fallback.called)
	assert.Equal(t, "General guidance: drive carefully.", result.Answer)
	// Sources still come from the original retrieval attempt.
	assert.Len(t, result.Sources, 3)
	assert.Equal(t, "chunk a", result.Sources[0])
}

func TestFallbackFiresOnEmptyAnswer(t *testing.T) {
	qa := &fakeQA{answer: "   \n"}
	fallback := &fakeFallback{answer: "fallback"}
	r := NewResolver(qa, fallback, nil)

	result, err := r.Resolve(context.Background(), "", "anything?")
	require.NoError(t, err)
	assert.True(t, fallback.called)
	assert.Equal(t, "fallback", result.Answer)
}

func TestFallbackReceivesRewrittenQuestion(t *testing.T) {
	qa := &fakeQA{answer: "I don't know."}
	fallback := &fakeFallback{answer: "fallback"}
	r := NewResolver(qa, fallback, nil)
	r.Contexts.Set(DefaultSessionKey, models.Turn{LastQuestion: "prev q", LastAnswer: "prev a"})

	_, err := r.Resolve(context.Background(), "", "What then?")
	require.NoError(t, err)
	assert.Contains(t, fallback.gotQuestion, "Previous question: prev q")
	assert.Contains(t, fallback.gotQuestion, "Follow-up question: What then?")
}

func TestNoFallbackOnRealAnswer(t *testing.T) {
	qa := &fakeQA{answer: "The speed limit is 50 km/h unless posted otherwise."}
	fallback := &fakeFallback{answer: "should not be used"}
	r := NewResolver(qa, fallback, nil)

	result, err := r.Resolve(context.Background(), "", "What is the default speed limit?")
	require.NoError(t, err)
	assert.False(t, fallback.called)
	assert.Equal(t, "The speed limit is 50 km/h unless posted otherwise.", result.Answer)
}

func TestSourcesCappedAtThree(t *testing.T) {
	qa := &fakeQA{answer: "ok", results: someResults(5)}
	r := NewResolver(qa, &fakeFallback{}, nil)

	result, err := r.Resolve(context.Background(), "", "q?")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk a", "chunk b", "chunk c"}, result.Sources)
}

func TestContextStoresOriginalQuestionAndFinalAnswer(t *testing.T) {
	qa := &fakeQA{answer: "I don't know."}
	fallback := &fakeFallback{answer: "final fallback answer"}
	r := NewResolver(qa, fallback, nil)
	r.Contexts.Set(DefaultSessionKey, models.Turn{LastQuestion: "old q", LastAnswer: "old a"})

	_, err := r.Resolve(context.Background(), "", "What should I do then?")
	require.NoError(t, err)

	turn, ok := r.Contexts.Get(DefaultSessionKey)
	require.True(t, ok)
	// The original question is stored, not the rewritten one.
	assert.Equal(t, "What should I do then?", turn.LastQuestion)
	assert.Equal(t, "final fallback answer", turn.LastAnswer)
}

func TestGenerationFailureYieldsDegradedAnswer(t *testing.T) {
	qa := &fakeQA{err: errors.New("model unreachable")}
	r := NewResolver(qa, &fakeFallback{}, nil)

	result, err := r.Resolve(context.Background(), "", "q?")
	require.NoError(t, err)
	assert.Equal(t, degradedAnswer, result.Answer)

	// A failed request must not poison the conversation slot.
	_, ok := r.Contexts.Get(DefaultSessionKey)
	assert.False(t, ok)
}

func TestPersistenceFailureDoesNotFailRequest(t *testing.T) {
	qa := &fakeQA{answer: "ok", results: someResults(2)}
	sink := &fakeSink{err: errors.New("database down")}
	r := NewResolver(qa, &fakeFallback{}, nil)
	r.Sessions = sink

	result, err := r.Resolve(context.Background(), "", "q?")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Answer)

	require.Len(t, sink.exchanges, 1)
	assert.Equal(t, "q?", sink.exchanges[0].Question)
	assert.Equal(t, result.SessionID, sink.exchanges[0].SessionID)
}

func TestResolveEnhancedAppliesEnhancement(t *testing.T) {
	qa := &fakeQA{answer: "base answer", results: someResults(2)}
	r := NewResolver(qa, &fakeFallback{}, nil)
	r.Enhancer = &fakeEnhancer{enhanced: "base answer plus framing"}

	result, err := r.ResolveEnhanced(context.Background(), "", "How do I renew my license?")
	require.NoError(t, err)

	assert.True(t, result.Enhanced)
	assert.Equal(t, "base answer plus framing", result.Answer.Answer)
	assert.Equal(t, []string{
		"What documents do I need to bring?",
		"How much does it cost?",
		"How long is the test?",
	}, result.FollowupQuestions)

	// The enhanced answer is what lands in the conversation slot.
	turn, ok := r.Contexts.Get(DefaultSessionKey)
	require.True(t, ok)
	assert.Equal(t, "base answer plus framing", turn.LastAnswer)
}

func TestResolveEnhancedDegradesToBaseAnswerOnEnhancerFailure(t *testing.T) {
	qa := &fakeQA{answer: "base answer"}
	r := NewResolver(qa, &fakeFallback{}, nil)
	r.Enhancer = &fakeEnhancer{err: errors.New("enhancer down")}

	result, err := r.ResolveEnhanced(context.Background(), "", "q?")
	require.NoError(t, err)
	assert.False(t, result.Enhanced)
	assert.Equal(t, "base answer", result.Answer.Answer)
}

func TestLooksUnanswered(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"I don't know.", true},
		{"I DON'T KNOW", true},
		{"i_don't__know!", true},
		{"", true},
		{"  \t\n ", true},
		{"Sorry, I don't know the answer to that.", true},
		{"The limit is 60 km/h.", false},
		{"I do not know of any exceptions, but the handbook says yield.", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksUnanswered(tt.answer), "answer=%q", tt.answer)
	}
}
