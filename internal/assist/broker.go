package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexushub/virtuallab/internal/model"
)

const (
	defaultTimeout = 10 * time.Second
	recordTimeout  = 5 * time.Second
)

// InteractionRecorder counts AI interactions against a lab session.
type InteractionRecorder interface {
	RecordAIInteraction(ctx context.Context, sessionID string) error
}

// DebugLogSink receives the audit entry of every error analysis.
type DebugLogSink interface {
	RecordDebugLog(entry model.DebugLog) bool
}

// AnalyzeRequest describes one error analysis.
type AnalyzeRequest struct {
	SessionID    string
	RequesterID  string
	ErrorMessage string
	CodeSnippet  string
	Language     string
}

// ReviewRequest compares a student's code with an optional mentor reference.
type ReviewRequest struct {
	SessionID   string
	StudentCode string
	MentorCode  string
}

// Config holds configuration for the broker.
type Config struct {
	Timeout  time.Duration
	Counter  InteractionRecorder
	DebugLog DebugLogSink
}

// Broker forwards requests to a Provider with a timeout and local fallback.
// A nil provider is valid and always yields fallbacks.
type Broker struct {
	provider Provider
	timeout  time.Duration
	counter  InteractionRecorder
	debugLog DebugLogSink
}

// NewBroker creates a new broker.
func NewBroker(provider Provider, config Config) *Broker {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return &Broker{
		provider: provider,
		timeout:  config.Timeout,
		counter:  config.Counter,
		debugLog: config.DebugLog,
	}
}

// ProviderName returns the active provider name, or "fallback".
func (b *Broker) ProviderName() string {
	if b.provider == nil {
		return "fallback"
	}
	return b.provider.Name()
}

// generate runs a single bounded provider call.
func (b *Broker) generate(ctx context.Context, prompt string) (string, error) {
	if b.provider == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrProviderUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	text, err := b.provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrProviderUnavailable)
	}
	return text, nil
}

// AnalyzeError explains an error in a code snippet. The result always carries
// a cause, a fix and best practices. When the request names a session the
// interaction is counted and a debug log is appended.
func (b *Broker) AnalyzeError(ctx context.Context, req AnalyzeRequest) Analysis {
	started := time.Now()
	fallback := fallbackAnalysis(req)

	analysis, err := b.analyze(ctx, req)
	switch {
	case err == nil:
		analysis = analysis.complete(fallback)
	case errors.Is(err, ErrMalformedResponse):
		log.Warn().Str("module", "assist").Str("session_id", req.SessionID).Err(err).Msg("unparsable analysis, returning raw text")
	default:
		log.Warn().Str("module", "assist").Str("session_id", req.SessionID).Str("provider", b.ProviderName()).
			Err(err).Msg("analysis unavailable, using fallback")
		analysis = fallback
	}

	log.Debug().Str("module", "assist").Str("session_id", req.SessionID).
		Dur("elapsed", time.Since(started)).Msg("error analysis answered")

	b.record(ctx, req, analysis)
	return analysis
}

func (b *Broker) analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error) {
	prompt, err := buildAnalyzePrompt(req)
	if err != nil {
		return Analysis{}, err
	}

	text, err := b.generate(ctx, prompt)
	if err != nil {
		return Analysis{}, err
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		return rawTextAnalysis(text), err
	}
	return analysis, nil
}

// record persists the interaction. Failures are logged and never reach the caller.
func (b *Broker) record(ctx context.Context, req AnalyzeRequest, analysis Analysis) {
	if req.SessionID == "" {
		return
	}

	b.countInteraction(ctx, req.SessionID)

	if b.debugLog == nil {
		return
	}
	response, err := json.Marshal(analysis)
	if err != nil {
		log.Error().Str("module", "assist").Err(err).Msg("failed to encode analysis")
		return
	}
	b.debugLog.RecordDebugLog(model.DebugLog{
		SessionID:    req.SessionID,
		AuthorID:     req.RequesterID,
		ErrorMessage: req.ErrorMessage,
		CodeSnippet:  req.CodeSnippet,
		AIResponse:   string(response),
		CapturedAt:   time.Now().UTC(),
	})
}

func (b *Broker) countInteraction(ctx context.Context, sessionID string) {
	if b.counter == nil || sessionID == "" {
		return
	}

	// the caller may already be gone; the count still belongs to the session
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := b.counter.RecordAIInteraction(ctx, sessionID); err != nil {
		log.Error().Str("module", "assist").Str("session_id", sessionID).Err(err).Msg("failed to count ai interaction")
	}
}

// SuggestCode generates code for a description. It is stateless.
func (b *Broker) SuggestCode(ctx context.Context, description, language string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrDescriptionRequired
	}
	if language == "" {
		language = "javascript"
	}

	prompt, err := buildSuggestPrompt(description, language)
	if err != nil {
		return "", err
	}

	text, err := b.generate(ctx, prompt)
	if err != nil {
		log.Warn().Str("module", "assist").Str("provider", b.ProviderName()).Err(err).Msg("suggestion unavailable, using fallback")
		return suggestionFallback, nil
	}
	return text, nil
}

// ReviewCode gives feedback on a student's code, compared with the mentor's
// reference when one is supplied.
func (b *Broker) ReviewCode(ctx context.Context, req ReviewRequest) string {
	feedback := fallbackReview(req.StudentCode)

	prompt, err := buildReviewPrompt(req)
	if err == nil {
		var text string
		text, err = b.generate(ctx, prompt)
		if err == nil {
			feedback = text
		}
	}
	if err != nil {
		log.Warn().Str("module", "assist").Str("session_id", req.SessionID).Err(err).Msg("review unavailable, using fallback")
	}

	b.countInteraction(ctx, req.SessionID)
	return feedback
}
