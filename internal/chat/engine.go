// Package chat implements the conversation pipeline: message assembly,
// the primary/fallback completion chain, reply polishing and memory
// persistence.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/aisha-chat/aisha-go/internal/config"
	"github.com/aisha-chat/aisha-go/internal/imaging"
	"github.com/aisha-chat/aisha-go/internal/llm"
	"github.com/aisha-chat/aisha-go/internal/memory"
	"github.com/aisha-chat/aisha-go/internal/metrics"
	"github.com/aisha-chat/aisha-go/internal/mood"
	"github.com/aisha-chat/aisha-go/internal/persona"
)

// ErrEmptyMessage rejects blank chat requests before any network or
// storage side effect.
var ErrEmptyMessage = errors.New("empty message")

// degradedPrefix tags replies served by the fallback model so the
// degradation stays observable to the caller.
const degradedPrefix = "(on my backup brain today) "

// apologyReply is the fixed string returned when both models fail.
// Upstream error detail is logged, never interpolated here.
const apologyReply = "Arre, kuch gadbad ho gaya — server ne thoda break le liya. Try again in a bit? ☕"

// Request is one inbound chat turn.
type Request struct {
	Message   string
	PersonaID string
	Language  string
	Reset     bool
	Image     *imaging.Image

	// Override bypasses the message builder entirely (advanced/test
	// callers supplying their own conversation).
	Override []llms.MessageContent
}

// Reply is the polished result of a chat turn.
type Reply struct {
	Text        string
	PersonaID   string
	DisplayName string
	Degraded    bool
}

// Engine drives the chat pipeline. All collaborators are injected; the
// engine holds no global state.
type Engine struct {
	registry *persona.Registry
	store    memory.Store
	client   *llm.Client
	cfg      config.Config
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewEngine wires the pipeline together.
func NewEngine(registry *persona.Registry, store memory.Store, client *llm.Client, cfg config.Config, logger *slog.Logger, collector *metrics.Collector) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Engine{
		registry: registry,
		store:    store,
		client:   client,
		cfg:      cfg,
		logger:   logger,
		metrics:  collector,
	}
}

// Respond runs one chat turn: validate, detect mood, build messages,
// call the primary model (fallback model on failure), polish, persist.
//
// Upstream failure of both models yields the fixed apology as a normal
// reply, not an error; memory persistence failure is logged and never
// invalidates an otherwise-successful reply.
func (e *Engine) Respond(ctx context.Context, req Request) (*Reply, error) {
	start := time.Now()
	defer func() { e.metrics.RecordTiming(metrics.OpChat, time.Since(start)) }()

	if strings.TrimSpace(req.Message) == "" && req.Image == nil {
		return nil, ErrEmptyMessage
	}

	p := e.registry.Resolve(req.PersonaID)

	if req.Reset {
		if err := e.store.Reset(ctx, p.ID); err != nil {
			e.logger.Error("memory reset failed", "persona", p.ID, "error", err)
		}
	}

	userMood := mood.Detect(req.Message)

	messages := req.Override
	if len(messages) == 0 {
		rec, err := e.store.Load(ctx, p.ID)
		if err != nil {
			// Load only fails on real I/O trouble; the chat can still
			// proceed without history.
			e.logger.Error("memory load failed, building without history", "persona", p.ID, "error", err)
			rec = memory.DefaultRecord()
		}
		messages = buildMessages(p, rec, req.Message, req.Language, req.Image, e.cfg.ContextWindow)
	}

	raw, degraded := e.complete(ctx, p.ID, messages)
	polished := Polish(raw, userMood, p, e.cfg.ReplyMaxRunes)

	e.persist(ctx, p.ID, req, polished)

	return &Reply{
		Text:        polished,
		PersonaID:   p.ID,
		DisplayName: p.DisplayName,
		Degraded:    degraded,
	}, nil
}

// complete runs the primary/fallback chain and never returns an error:
// the worst case is the fixed apology string.
func (e *Engine) complete(ctx context.Context, personaID string, messages []llms.MessageContent) (text string, degraded bool) {
	raw, err := e.callModel(ctx, metrics.OpLLMPrimary, messages, llm.CompleteParams{
		Model:       e.cfg.PrimaryModel,
		Temperature: e.cfg.PrimaryTemperature,
		MaxTokens:   e.cfg.PrimaryMaxTokens,
	})
	if err == nil {
		return raw, false
	}
	e.logger.Warn("primary model failed, trying fallback",
		"persona", personaID, "model", e.cfg.PrimaryModel, "error", err)

	raw, err = e.callModel(ctx, metrics.OpLLMFallback, messages, llm.CompleteParams{
		Model:       e.cfg.FallbackModel,
		Temperature: e.cfg.FallbackTemperature,
		MaxTokens:   e.cfg.FallbackMaxTokens,
	})
	if err == nil {
		e.metrics.RecordDegraded()
		return degradedPrefix + raw, true
	}
	e.logger.Error("fallback model failed, serving apology",
		"persona", personaID, "model", e.cfg.FallbackModel, "error", err)

	e.metrics.RecordApology()
	return apologyReply, true
}

// callModel bounds one completion call with the configured timeout. A
// deadline hit is treated like any other upstream failure.
func (e *Engine) callModel(ctx context.Context, op string, messages []llms.MessageContent, params llm.CompleteParams) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CompletionTimeout)
	defer cancel()

	start := time.Now()
	raw, err := e.client.Complete(callCtx, messages, params)
	if err != nil {
		return "", err
	}
	e.metrics.RecordTiming(op, time.Since(start))
	return raw, nil
}

// persist appends the user turn and the assistant reply. Applied on
// every non-validation path, apology included, so the history policy
// stays consistent.
func (e *Engine) persist(ctx context.Context, personaID string, req Request, reply string) {
	userMsg := strings.TrimSpace(req.Message)
	if userMsg == "" {
		userMsg = defaultImagePrompt
	}

	start := time.Now()
	err := e.store.AppendTurns(ctx, personaID,
		memory.Turn{Role: memory.RoleUser, Message: userMsg},
		memory.Turn{Role: memory.RoleAssistant, Message: reply},
	)
	if err != nil {
		e.logger.Error("memory persist failed", "persona", personaID, "error", err)
		return
	}
	e.metrics.RecordTiming(metrics.OpMemorySave, time.Since(start))
}
