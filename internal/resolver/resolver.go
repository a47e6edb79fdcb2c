// Package resolver implements the query-resolution state machine:
// follow-up rewrite, retrieval-backed generation, don't-know fallback,
// context update and best-effort persistence.
package resolver

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"handbook-rag/internal/models"
)

// AnswerChain is the primary retrieval-backed generation path.
type AnswerChain interface {
	Answer(ctx context.Context, question string) (string, []models.SearchResult, error)
}

// FallbackChain answers from general instructions only.
type FallbackChain interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Enhancer optionally rewrites an answer with supplementary framing.
type Enhancer interface {
	Enhance(ctx context.Context, question, answer, contextText string) (string, error)
}

// SessionSink persists resolved exchanges. Failures are logged and
// swallowed; persistence never fails a request.
type SessionSink interface {
	StoreExchange(ctx context.Context, exchange models.QAExchange) error
}

// TelemetryRecorder records per-query metrics, also best-effort.
type TelemetryRecorder interface {
	RecordQuery(ctx context.Context, metrics models.QueryMetrics) error
}

// Answer is the resolved response for the basic ask path.
type Answer struct {
	Answer    string
	Sources   []string
	SessionID string
}

// EnhancedAnswer adds the enhancement and follow-up suggestion results.
type EnhancedAnswer struct {
	Answer
	FollowupQuestions []string
	Enhanced          bool
}

const (
	maxSources = 3

	// enhancerContextLen caps how much of each source feeds the
	// enhancement prompt.
	enhancerContextLen = 200

	degradedAnswer = "Sorry, I couldn't generate an answer right now. Please try again in a moment."
)

var strippedChars = regexp.MustCompile(`[\s\W_]+`)

// looksUnanswered applies the don't-know heuristic: lowercase, strip
// whitespace/punctuation/underscores, then check for "idontknow" or an
// empty result.
func looksUnanswered(answer string) bool {
	normalized := strippedChars.ReplaceAllString(strings.ToLower(answer), "")
	return normalized == "" || strings.Contains(normalized, "idontknow")
}

// Resolver wires the chains and collaborators together. QA, Fallback
// and Contexts are required; the rest are optional capabilities.
type Resolver struct {
	QA        AnswerChain
	Fallback  FallbackChain
	Enhancer  Enhancer
	Contexts  *ContextStore
	Sessions  SessionSink
	Telemetry TelemetryRecorder
}

func NewResolver(qa AnswerChain, fallback FallbackChain, contexts *ContextStore) *Resolver {
	if contexts == nil {
		contexts = NewContextStore()
	}
	return &Resolver{QA: qa, Fallback: fallback, Contexts: contexts}
}

// Resolve runs the full state machine for one question and returns the
// final answer plus up to three source excerpts from the retrieval
// attempt.
func (r *Resolver) Resolve(ctx context.Context, sessionKey, question string) (Answer, error) {
	started := time.Now()
	sessionKey = normalizeKey(sessionKey)

	queryText := r.rewriteIfFollowUp(sessionKey, question)

	answer, results, usedFallback, err := r.answer(ctx, queryText)
	if err != nil {
		log.Error().Err(err).Msg("generation failed, returning degraded answer")
		return Answer{Answer: degradedAnswer, Sources: topSources(results, maxSources)}, nil
	}

	r.Contexts.Set(sessionKey, models.Turn{LastQuestion: question, LastAnswer: answer})

	sessionID := uuid.NewString()
	sources := topSources(results, maxSources)
	r.persist(ctx, models.QAExchange{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		Sources:   sources,
		Duration:  time.Since(started),
		Fallback:  usedFallback,
	}, len(results))

	return Answer{Answer: answer, Sources: sources, SessionID: sessionID}, nil
}

// ResolveEnhanced runs Resolve's pipeline plus the enhancement and
// follow-up suggestion steps before the context update.
func (r *Resolver) ResolveEnhanced(ctx context.Context, sessionKey, question string) (EnhancedAnswer, error) {
	started := time.Now()
	sessionKey = normalizeKey(sessionKey)

	queryText := r.rewriteIfFollowUp(sessionKey, question)

	answer, results, usedFallback, err := r.answer(ctx, queryText)
	if err != nil {
		log.Error().Err(err).Msg("generation failed, returning degraded answer")
		return EnhancedAnswer{
			Answer:            Answer{Answer: degradedAnswer, Sources: topSources(results, maxSources)},
			FollowupQuestions: []string{},
		}, nil
	}

	enhanced := false
	if r.Enhancer != nil {
		improved, err := r.Enhancer.Enhance(ctx, question, answer, enhancerContext(results))
		if err != nil {
			log.Warn().Err(err).Msg("answer enhancement failed, keeping base answer")
		} else if improved != "" {
			answer = improved
			enhanced = true
		}
	}

	followups := SuggestFollowups(question)

	r.Contexts.Set(sessionKey, models.Turn{LastQuestion: question, LastAnswer: answer})

	sessionID := uuid.NewString()
	sources := topSources(results, maxSources)
	r.persist(ctx, models.QAExchange{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		Sources:   sources,
		Duration:  time.Since(started),
		Fallback:  usedFallback,
	}, len(results))

	return EnhancedAnswer{
		Answer:            Answer{Answer: answer, Sources: sources, SessionID: sessionID},
		FollowupQuestions: followups,
		Enhanced:          enhanced,
	}, nil
}

// ClearContext drops the conversation slot for the given key, so the
// next request behaves as if no prior turn exists.
func (r *Resolver) ClearContext(sessionKey string) {
	r.Contexts.Clear(normalizeKey(sessionKey))
}

// rewriteIfFollowUp enriches the retrieval/generation input with the
// prior turn iff the question matches a follow-up phrase and a prior
// turn exists for the key.
func (r *Resolver) rewriteIfFollowUp(sessionKey, question string) string {
	if !isFollowUp(question) {
		return question
	}
	turn, ok := r.Contexts.Get(sessionKey)
	if !ok || turn.LastQuestion == "" || turn.LastAnswer == "" {
		return question
	}
	log.Debug().Str("session", sessionKey).Msg("follow-up detected, embedding previous turn")
	return rewriteFollowUp(turn, question)
}

// answer runs the primary chain and, when the don't-know heuristic
// fires, the fallback chain. The fallback output unconditionally
// replaces the primary answer; the retrieval results stay.
func (r *Resolver) answer(ctx context.Context, queryText string) (string, []models.SearchResult, bool, error) {
	answer, results, err := r.QA.Answer(ctx, queryText)
	if err != nil {
		return "", results, false, err
	}
	answer = strings.TrimSpace(answer)
	if !looksUnanswered(answer) {
		return answer, results, false, nil
	}

	log.Debug().Msg("primary chain could not answer, invoking fallback")
	fallback, err := r.Fallback.Answer(ctx, queryText)
	if err != nil {
		return "", results, true, err
	}
	return strings.TrimSpace(fallback), results, true, nil
}

func (r *Resolver) persist(ctx context.Context, exchange models.QAExchange, sourceCount int) {
	if r.Sessions != nil {
		if err := r.Sessions.StoreExchange(ctx, exchange); err != nil {
			log.Warn().Err(err).Str("session", exchange.SessionID).Msg("session store failed, continuing")
		}
	}

	metrics := models.QueryMetrics{
		SessionID:    exchange.SessionID,
		Duration:     exchange.Duration,
		AnswerLength: len(exchange.Answer),
		SourceCount:  sourceCount,
		Fallback:     exchange.Fallback,
	}
	log.Info().
		Str("session", exchange.SessionID).
		Dur("duration", metrics.Duration).
		Int("answer_len", metrics.AnswerLength).
		Int("sources", metrics.SourceCount).
		Bool("fallback", metrics.Fallback).
		Msg("query resolved")
	if r.Telemetry != nil {
		if err := r.Telemetry.RecordQuery(ctx, metrics); err != nil {
			log.Warn().Err(err).Msg("telemetry write failed, continuing")
		}
	}
}

func normalizeKey(sessionKey string) string {
	if sessionKey == "" {
		return DefaultSessionKey
	}
	return sessionKey
}

func topSources(results []models.SearchResult, n int) []string {
	sources := make([]string, 0, n)
	for _, r := range results {
		if len(sources) == n {
			break
		}
		sources = append(sources, r.Content)
	}
	return sources
}

func enhancerContext(results []models.SearchResult) string {
	var parts []string
	for i, r := range results {
		if i == maxSources {
			break
		}
		content := r.Content
		if len(content) > enhancerContextLen {
			content = content[:enhancerContextLen]
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, " ")
}
