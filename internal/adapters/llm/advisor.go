package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/zerodeadline/internal/domain/stress"
	"github.com/okian/zerodeadline/pkg/logger"
	"github.com/okian/zerodeadline/pkg/metrics"
	"github.com/okian/zerodeadline/pkg/retry"
)

// Request kinds used in logs and metrics.
const (
	kindAdvice = "advice"
	kindChat   = "chat"
)

const planPrompt = `You are a professional personal risk analyst. Below are the user's current risk briefing and additional data.

--- Basic risk briefing ---
%s

--- Additional data ---
%s
Additional context: %s
---

Based on this, propose **5 concrete improvements**, each with actionable steps (time, frequency or a specific action), in about 150 words. Reply in the language of the additional context if one is given.`

const chatPrompt = `You are a friendly counselling assistant with access to the user's risk analysis.
The user's basic risk briefing:
%s

User question:
%s

Using this context, write a kind and specific answer in under 100 words, in the language of the question. Respond politely even if the question is unrelated to the data.`

// Advisor builds prompts from the dashboard state and asks the model with
// retries.
type Advisor struct {
	asker   Asker
	policy  retry.Policy
	timeout time.Duration
	log     logger.Logger
}

// AdvisorOption configures an Advisor.
type AdvisorOption func(*Advisor)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p retry.Policy) AdvisorOption {
	return func(a *Advisor) { a.policy = p }
}

// WithAttemptTimeout bounds each attempt. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) AdvisorOption {
	return func(a *Advisor) { a.timeout = d }
}

// WithAdvisorLogger sets the logger.
func WithAdvisorLogger(l logger.Logger) AdvisorOption {
	return func(a *Advisor) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAdvisor wraps asker. A nil asker makes every call fail with
// ErrNotConfigured.
func NewAdvisor(asker Asker, opts ...AdvisorOption) *Advisor {
	a := &Advisor{asker: asker, policy: retry.Default(), log: logger.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ImprovementPlan asks for five concrete improvements.
func (a *Advisor) ImprovementPlan(ctx context.Context, briefing string, summary stress.Summary, userContext string) (string, error) {
	prompt := fmt.Sprintf(planPrompt, briefing, summary.String(), strings.TrimSpace(userContext))
	return a.ask(ctx, kindAdvice, prompt)
}

// Chat appends the question and the answer to conv. A failed answer is
// replaced by Apology; the error is still returned for logging.
func (a *Advisor) Chat(ctx context.Context, conv Conversation, briefing, question string) (Conversation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return conv, ErrEmptyQuestion
	}
	answer, err := a.ask(ctx, kindChat, fmt.Sprintf(chatPrompt, briefing, question))
	if err != nil {
		return conv.Unanswered(question), err
	}
	return conv.Asked(question).With(Message{Role: RoleAssistant, Text: answer}), nil
}

func (a *Advisor) ask(ctx context.Context, kind, prompt string) (string, error) {
	if a.asker == nil {
		metrics.RecordLLMRequest(kind, "not_configured", 0)
		return "", ErrNotConfigured
	}

	start := time.Now()
	policy := a.policy
	policy.OnRetry = func(attempt int, err error) {
		metrics.RecordLLMRetry()
		a.log.Debug(ctx, "llm attempt failed, retrying",
			logger.String("kind", kind),
			logger.Int("attempt", attempt),
			logger.Error(err))
	}

	var answer string
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}
		var err error
		answer, err = a.asker.Ask(ctx, prompt)
		return err
	})
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "cancelled"
		}
		metrics.RecordLLMRequest(kind, outcome, elapsed)
		metrics.RecordErrorByComponent("llm", kind)
		a.log.Warn(ctx, "llm request failed", logger.String("kind", kind), logger.Error(err))
		return "", fmt.Errorf("%s request: %w", kind, err)
	}
	metrics.RecordLLMRequest(kind, "success", elapsed)
	return answer, nil
}
