package chat

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gradeinsight/assistant/internal/analytics"
	"github.com/gradeinsight/assistant/internal/artifact"
	"github.com/gradeinsight/assistant/internal/intent"
	"github.com/gradeinsight/assistant/internal/llm"
	"github.com/gradeinsight/assistant/internal/observability"
	"github.com/gradeinsight/assistant/internal/prompt"
	"github.com/gradeinsight/assistant/internal/ratelimit"
)

// AnalyticsExecutor runs a classified directive against the grade database.
type AnalyticsExecutor interface {
	Execute(ctx context.Context, teacherID int, d intent.Directive) (analytics.Result, error)
}

// ContextRetriever returns a prompt-ready block of relevant past messages.
type ContextRetriever interface {
	GetContext(ctx context.Context, query string, n int, excludeConversation string) (string, error)
}

// MemoryWriter persists one conversational turn.
type MemoryWriter interface {
	Insert(ctx context.Context, conversationID, role, content, timestamp string) (string, error)
}

// TranscriptArchiver records the finished exchange for later browsing.
type TranscriptArchiver interface {
	RecordExchange(ctx context.Context, conversationID string, teacherID int, userMessage, assistantMessage string) error
}

// Orchestrator drives one chat request end to end, surfacing progress as an
// ordered event stream. Optional collaborators (analytics, retriever, memory,
// archive) are checked once; nil disables the capability.
type Orchestrator struct {
	Limiter   *ratelimit.Limiter
	Analytics AnalyticsExecutor
	Retriever ContextRetriever
	Memory    MemoryWriter
	Archive   TranscriptArchiver
	Assembler *prompt.Assembler
	Streamer  llm.Streamer
	Metrics   *observability.Metrics

	MemoryResults int
	StreamTimeout time.Duration

	mu     sync.Mutex
	active map[string]struct{}
}

// Admit applies admission control for a client identity. Rejected requests
// must not reach Run.
func (o *Orchestrator) Admit(client string) bool {
	if o.Limiter == nil {
		return true
	}
	if o.Limiter.Allow(client) {
		return true
	}
	if o.Metrics != nil {
		o.Metrics.RateLimitRejections.Inc()
	}
	return false
}

func (o *Orchestrator) trackConversation(id string) (release func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		o.active = make(map[string]struct{})
	}
	if _, exists := o.active[id]; exists {
		return func() {}
	}
	o.active[id] = struct{}{}
	if o.Metrics != nil {
		o.Metrics.ActiveConversations.Inc()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.active, id)
			o.mu.Unlock()
			if o.Metrics != nil {
				o.Metrics.ActiveConversations.Dec()
			}
		})
	}
}

// Run executes the full pipeline for an admitted request. Domain failures
// are emitted as a terminal error event; the returned error is non-nil only
// when emit itself fails (caller gone), in which case the stream stops.
func (o *Orchestrator) Run(ctx context.Context, req Request, emit func(Event) error) error {
	start := time.Now()
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	release := o.trackConversation(conversationID)
	defer release()

	outcome := "success"
	defer func() {
		if o.Metrics != nil {
			o.Metrics.ObserveChat(outcome, time.Since(start))
		}
	}()

	fail := func(err error) error {
		outcome = "error"
		log.Printf("chat %s: %v", conversationID, err)
		return emit(ErrorEvent(err.Error()))
	}

	if err := emit(StatusEvent("Analyzing...")); err != nil {
		outcome = "disconnected"
		return err
	}

	// Intent detection and analytics grounding. A classification miss is
	// silent: the request proceeds as plain conversation.
	var analyticsBlock string
	if o.Analytics != nil {
		if directive, ok := intent.Classify(req.Message); ok {
			if o.Metrics != nil {
				o.Metrics.DirectiveHits.WithLabelValues(string(directive.Type)).Inc()
			}
			if err := emit(StatusEvent(fmt.Sprintf("Fetching %s...", directive.Type))); err != nil {
				outcome = "disconnected"
				return err
			}
			result, err := o.Analytics.Execute(ctx, req.TeacherID, directive)
			if err != nil {
				if o.Metrics != nil {
					o.Metrics.ProviderErrors.WithLabelValues("analytics", "query").Inc()
				}
				return fail(fmt.Errorf("analytics query failed: %w", err))
			}
			if err := emit(ToolResultEvent(string(directive.Type), true, len(result.Records))); err != nil {
				outcome = "disconnected"
				return err
			}
			analyticsBlock = prompt.MarshalAnalytics(result.Directive, result.Records)
		}
	}

	// Semantic memory retrieval degrades silently on failure.
	var memoryBlock string
	if o.Retriever != nil {
		block, err := o.Retriever.GetContext(ctx, req.Message, o.MemoryResults, conversationID)
		if err != nil {
			log.Printf("chat %s: memory retrieval degraded: %v", conversationID, err)
			if o.Metrics != nil {
				o.Metrics.MemoryOps.WithLabelValues("retrieve", "error").Inc()
			}
		} else {
			memoryBlock = block
		}
	}

	input := o.Assembler.Assemble(req.TeacherID, analyticsBlock, memoryBlock, req.ConversationHistory, req.Message)

	if err := emit(StatusEvent("Thinking...")); err != nil {
		outcome = "disconnected"
		return err
	}

	streamCtx := ctx
	if o.StreamTimeout > 0 {
		var cancel context.CancelFunc
		streamCtx, cancel = context.WithTimeout(ctx, o.StreamTimeout)
		defer cancel()
	}

	var emitErr error
	full, err := o.Streamer.Stream(streamCtx, llm.Request{
		Prompt:      input,
		MaxTokens:   req.MaxTokens,
		Temperature: temperatureOf(req),
	}, func(chunk string) error {
		if e := emit(TokenEvent(chunk)); e != nil {
			emitErr = e
			return e
		}
		if o.Metrics != nil {
			o.Metrics.TokensStreamed.Inc()
		}
		return nil
	})
	if emitErr != nil {
		outcome = "disconnected"
		return emitErr
	}
	if err != nil {
		if o.Metrics != nil {
			o.Metrics.ProviderErrors.WithLabelValues("llm", "stream").Inc()
		}
		return fail(fmt.Errorf("generation failed: %w", err))
	}

	o.persistExchange(ctx, conversationID, req, full)

	for _, a := range artifact.Extract(full) {
		if err := emit(ArtifactEvent(a)); err != nil {
			outcome = "disconnected"
			return err
		}
	}

	if err := emit(DoneEvent()); err != nil {
		outcome = "disconnected"
		return err
	}
	return nil
}

// persistExchange writes both turns to vector memory and the transcript
// archive. Failures are logged; the response is already delivered.
func (o *Orchestrator) persistExchange(ctx context.Context, conversationID string, req Request, response string) {
	now := time.Now().Format(time.RFC3339)
	if o.Memory != nil {
		if _, err := o.Memory.Insert(ctx, conversationID, "user", req.Message, now); err != nil {
			log.Printf("chat %s: memory write failed (user turn): %v", conversationID, err)
			if o.Metrics != nil {
				o.Metrics.MemoryOps.WithLabelValues("insert", "error").Inc()
			}
		}
		if _, err := o.Memory.Insert(ctx, conversationID, "assistant", response, now); err != nil {
			log.Printf("chat %s: memory write failed (assistant turn): %v", conversationID, err)
			if o.Metrics != nil {
				o.Metrics.MemoryOps.WithLabelValues("insert", "error").Inc()
			}
		}
	}
	if o.Archive != nil {
		if err := o.Archive.RecordExchange(ctx, conversationID, req.TeacherID, req.Message, response); err != nil {
			log.Printf("chat %s: archive write failed: %v", conversationID, err)
		}
	}
}

func temperatureOf(req Request) float64 {
	if req.Temperature == nil {
		return 0.7
	}
	return *req.Temperature
}
