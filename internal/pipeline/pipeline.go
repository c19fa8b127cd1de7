// Package pipeline wires the dual-path extraction flow: normalize, run
// the rule-based and LLM extractors, reconcile, validate.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/extract"
	"github.com/fyrsmithlabs/incidentd/internal/normalize"
	"github.com/fyrsmithlabs/incidentd/internal/schema"
)

// DefaultLLMWait bounds how long a request waits for the LLM path.
const DefaultLLMWait = 35 * time.Second

// LLMExtractor is the asynchronous extraction path. A nil result means
// "no answer"; the pipeline never fails because of it.
type LLMExtractor interface {
	Extract(ctx context.Context, text, refISO string) extract.LLMResult
}

// Service runs extractions. The rule-based path computes synchronously;
// the LLM path races a timer and loses gracefully.
type Service struct {
	rules   *extract.RuleExtractor
	llm     LLMExtractor
	wait    time.Duration
	logger  *zap.Logger
	metrics *Metrics
}

// New creates the extraction pipeline. llm may be nil to run rule-only;
// metrics may be nil to skip instrumentation.
func New(rules *extract.RuleExtractor, llm LLMExtractor, wait time.Duration, logger *zap.Logger, metrics *Metrics) *Service {
	if wait <= 0 {
		wait = DefaultLLMWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rules:   rules,
		llm:     llm,
		wait:    wait,
		logger:  logger,
		metrics: metrics,
	}
}

// Extract produces the final four-field record for a report. Both paths
// see the same normalized text. The LLM result, when it arrives in time
// and is non-nil, wins per field; otherwise the rule-based record stands.
// The only error returned is a *schema.ValidationError on a record that
// violates the response contract.
func (s *Service) Extract(ctx context.Context, text, refISO string) (extract.Record, error) {
	start := time.Now()
	log := s.logger.With(zap.String("extraction_id", uuid.NewString()))

	clean := normalize.Text(text)

	var resCh chan extract.LLMResult
	llmCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()
	if s.llm != nil {
		resCh = make(chan extract.LLMResult, 1)
		go func() {
			resCh <- s.llm.Extract(llmCtx, clean, refISO)
		}()
	}

	rules := s.rules.Extract(clean, refISO)

	var llm extract.LLMResult
	if resCh != nil {
		select {
		case llm = <-resCh:
		case <-llmCtx.Done():
			// The in-flight request is torn down by the cancelled
			// context; nothing waits for it.
			log.Warn("llm extraction timed out", zap.Duration("wait", s.wait))
		}
	}

	candidate := extract.Merge(llm, rules)
	if err := schema.Validate(candidate); err != nil {
		log.Warn("schema validation failed",
			zap.Error(err),
			zap.Bool("llm_used", llm != nil))
		s.metrics.observe(outcomeValidationFailed, time.Since(start))
		return extract.Record{}, err
	}

	rec := recordFrom(candidate)
	outcome := outcomeRuleOnly
	if llm != nil {
		outcome = outcomeLLMMerged
	}
	s.metrics.observe(outcome, time.Since(start))
	log.Info("extraction completed",
		zap.Bool("llm_used", llm != nil),
		zap.Duration("duration", time.Since(start)))
	return rec, nil
}

// recordFrom rebuilds a Record from a validated candidate; after
// validation every value is a string.
func recordFrom(candidate map[string]any) extract.Record {
	get := func(k string) string {
		s, _ := candidate[k].(string)
		return s
	}
	return extract.Record{
		OccurredAt:   get(extract.FieldOccurredAt),
		Location:     get(extract.FieldLocation),
		IncidentType: get(extract.FieldIncidentType),
		Impact:       get(extract.FieldImpact),
	}
}
