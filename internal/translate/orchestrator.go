package translate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"doctrans/internal/logger"
	"doctrans/internal/placeholder"
	"doctrans/internal/segment"
	"doctrans/internal/types"
)

// Defaults applied by NewOrchestrator for zero config values.
const (
	DefaultMaxBatchChars = 4000
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 2 * time.Second
	DefaultConcurrency   = 3

	maxRetryDelay = 30 * time.Second
)

// BatchState tracks one batch through the retry state machine.
type BatchState string

const (
	BatchPending   BatchState = "pending"
	BatchInFlight  BatchState = "in_flight"
	BatchRetrying  BatchState = "retrying"
	BatchSucceeded BatchState = "succeeded"
	BatchFailed    BatchState = "failed"
)

// Batch is an ordered, size-bounded group of segments destined for one
// external call.
type Batch struct {
	Index    int
	Segments []segment.Segment
	State    BatchState
	Attempts int
}

// SegmentText pairs a segment id with its decoded translation.
type SegmentText struct {
	SegmentID string `json:"segment_id"`
	Text      string `json:"text"`
}

// Result is the per-language outcome of one translation run.
type Result struct {
	Language       string        `json:"language"`
	Segments       []SegmentText `json:"segments"`
	TokensIn       int           `json:"tokens_in"`
	TokensOut      int           `json:"tokens_out"`
	Cost           float64       `json:"cost"`
	CacheHits      int           `json:"cache_hits"`
	Failed         bool          `json:"failed"`
	Err            error         `json:"-"`
	FailedSegments []string      `json:"failed_segments,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
}

// ProgressFunc observes translation progress. It is invoked after every
// batch, never concurrently.
type ProgressFunc func(currentBatch, totalBatches int, language string, estimatedCost float64)

// Config holds the orchestration knobs. Token rates are cost per token, so
// estimated cost is tokensIn*InputTokenRate + tokensOut*OutputTokenRate.
type Config struct {
	MaxBatchChars   int
	MaxRetries      int
	RetryDelay      time.Duration
	Concurrency     int // concurrently processed target languages
	InputTokenRate  float64
	OutputTokenRate float64
}

// Orchestrator partitions segments into batches per target language, drives
// the external translator with retry and backoff, and validates round-trip
// invariants on everything that comes back.
type Orchestrator struct {
	translator Translator
	cache      *Cache
	cfg        Config

	// Cost and the progress observer are the only cross-language shared
	// state; both are funneled through these mutexes.
	costMu     sync.Mutex
	totalCost  float64
	progressMu sync.Mutex
}

// NewOrchestrator creates an Orchestrator. The cache may be nil.
func NewOrchestrator(translator Translator, cache *Cache, cfg Config) *Orchestrator {
	if cfg.MaxBatchChars <= 0 {
		cfg.MaxBatchChars = DefaultMaxBatchChars
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		translator: translator,
		cache:      cache,
		cfg:        cfg,
	}
}

// Translate runs the full orchestration for every target language and
// returns one Result per language. A language that exhausts retries is
// marked failed without aborting the others; callers may re-run only the
// failed languages.
func (o *Orchestrator) Translate(ctx context.Context, segments []segment.Segment, targetLangs []string, glossary map[string]string, onProgress ProgressFunc) map[string]*Result {
	results := make(map[string]*Result, len(targetLangs))
	if len(segments) == 0 || len(targetLangs) == 0 {
		for _, lang := range targetLangs {
			results[lang] = &Result{Language: lang}
		}
		return results
	}

	logger.Info("starting translation run",
		logger.Int("segments", len(segments)),
		logger.Int("languages", len(targetLangs)),
		logger.Int("maxBatchChars", o.cfg.MaxBatchChars))

	sem := make(chan struct{}, o.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, lang := range targetLangs {
		wg.Add(1)
		go func(language string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result := o.translateLanguage(ctx, segments, language, glossary[language], onProgress)

			mu.Lock()
			results[language] = result
			mu.Unlock()
		}(lang)
	}
	wg.Wait()

	return results
}

// TotalCost returns the accumulated cost estimate across all languages.
func (o *Orchestrator) TotalCost() float64 {
	o.costMu.Lock()
	defer o.costMu.Unlock()
	return o.totalCost
}

func (o *Orchestrator) addCost(tokensIn, tokensOut int) float64 {
	o.costMu.Lock()
	defer o.costMu.Unlock()
	o.totalCost += float64(tokensIn)*o.cfg.InputTokenRate + float64(tokensOut)*o.cfg.OutputTokenRate
	return o.totalCost
}

func (o *Orchestrator) reportProgress(onProgress ProgressFunc, current, total int, language string, cost float64) {
	if onProgress == nil {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	onProgress(current, total, language, cost)
}

// translateLanguage processes all segments for one target language. Batches
// run one at a time in submission order, so per-language results, cost and
// progress stay monotonic regardless of the other languages' pacing.
func (o *Orchestrator) translateLanguage(ctx context.Context, segments []segment.Segment, language, glossaryContext string, onProgress ProgressFunc) *Result {
	result := &Result{Language: language}

	translations := make(map[string]string, len(segments))

	// Cache pass: segments translated on an earlier run skip the service.
	var pending []segment.Segment
	for _, seg := range segments {
		if o.cache != nil {
			if cached, ok := o.cache.Get(language, seg.Text); ok {
				translations[seg.ID] = o.decodeAndValidate(seg, cached, result)
				result.CacheHits++
				continue
			}
		}
		pending = append(pending, seg)
	}

	batches := BuildBatches(pending, o.cfg.MaxBatchChars)

	// Cache hits are work the observer never sees as a batch; report them
	// up front so a fully cached language still announces itself.
	if result.CacheHits > 0 {
		o.reportProgress(onProgress, 0, len(batches), language, o.addCost(0, 0))
	}

	logger.Info("language translation started",
		logger.String("language", language),
		logger.Int("segments", len(segments)),
		logger.Int("cacheHits", result.CacheHits),
		logger.Int("batches", len(batches)))

	for i := range batches {
		if err := ctx.Err(); err != nil {
			// Pending batches are cancelled before they start; whatever
			// already completed is discarded with the run.
			result.Failed = true
			result.Err = types.NewAppError(types.ErrCancelled, "translation run cancelled", err)
			logger.Warn("translation cancelled",
				logger.String("language", language),
				logger.Int("completedBatches", i))
			return result
		}

		batch := &batches[i]
		out, err := o.runBatch(ctx, batch, language, glossaryContext)
		if err != nil {
			if !IsRetryable(err) {
				result.Failed = true
				result.Err = err
				logger.Error("language translation failed", err,
					logger.String("language", language),
					logger.Int("batch", batch.Index))
				return result
			}

			// Transient exhaustion: degrade to per-segment calls before
			// giving up on the language.
			out = o.translateSegmentsIndividually(ctx, batch, language, glossaryContext, result)
			if out == nil {
				result.Failed = true
				result.Err = err
				return result
			}
		}

		for j, seg := range batch.Segments {
			raw := ""
			if j < len(out.Texts) {
				raw = out.Texts[j]
			}
			if raw == "" && contains(result.FailedSegments, seg.ID) {
				translations[seg.ID] = ""
				continue
			}
			if o.cache != nil {
				o.cache.Set(language, seg.Text, raw)
			}
			translations[seg.ID] = o.decodeAndValidate(seg, raw, result)
		}

		result.TokensIn += out.TokensIn
		result.TokensOut += out.TokensOut
		cost := o.addCost(out.TokensIn, out.TokensOut)
		result.Cost += float64(out.TokensIn)*o.cfg.InputTokenRate + float64(out.TokensOut)*o.cfg.OutputTokenRate
		o.reportProgress(onProgress, i+1, len(batches), language, cost)
	}

	// Assemble in original segment order.
	for _, seg := range segments {
		result.Segments = append(result.Segments, SegmentText{
			SegmentID: seg.ID,
			Text:      translations[seg.ID],
		})
	}

	logger.Info("language translation complete",
		logger.String("language", language),
		logger.Int("segments", len(result.Segments)),
		logger.Int("tokensIn", result.TokensIn),
		logger.Int("tokensOut", result.TokensOut),
		logger.Int("failedSegments", len(result.FailedSegments)))

	return result
}

// runBatch drives one batch through the retry state machine:
// PENDING → IN_FLIGHT → {SUCCEEDED, RETRYING → IN_FLIGHT, FAILED}.
func (o *Orchestrator) runBatch(ctx context.Context, batch *Batch, language, glossaryContext string) (*BatchOutput, error) {
	texts := make([]string, len(batch.Segments))
	for i, seg := range batch.Segments {
		texts[i] = seg.Text
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
		batch.State = BatchInFlight
		batch.Attempts = attempt

		out, err := o.translator.TranslateBatch(ctx, texts, language, glossaryContext)
		if err == nil {
			batch.State = BatchSucceeded
			return out, nil
		}
		lastErr = err

		logger.Warn("batch attempt failed",
			logger.String("language", language),
			logger.Int("batch", batch.Index),
			logger.Int("attempt", attempt),
			logger.Err(err))

		if !IsRetryable(err) {
			break
		}

		if attempt < o.cfg.MaxRetries {
			batch.State = BatchRetrying
			if err := sleepContext(ctx, o.backoffDelay(attempt)); err != nil {
				batch.State = BatchFailed
				return nil, NewServiceError(ErrTimeout, "cancelled during backoff", err)
			}
		}
	}

	batch.State = BatchFailed
	return nil, lastErr
}

// translateSegmentsIndividually is the degradation path after a batch
// exhausts its retries on a transient error: each segment is retried alone,
// and a segment that still fails is recorded with an empty translation.
// Returns nil only when every segment failed.
func (o *Orchestrator) translateSegmentsIndividually(ctx context.Context, batch *Batch, language, glossaryContext string, result *Result) *BatchOutput {
	logger.Warn("falling back to per-segment translation",
		logger.String("language", language),
		logger.Int("batch", batch.Index),
		logger.Int("segments", len(batch.Segments)))

	out := &BatchOutput{Texts: make([]string, len(batch.Segments))}
	failed := 0

	for i, seg := range batch.Segments {
		single := Batch{Index: batch.Index, Segments: []segment.Segment{seg}, State: BatchPending}
		segOut, err := o.runBatch(ctx, &single, language, glossaryContext)
		if err != nil {
			failed++
			result.FailedSegments = append(result.FailedSegments, seg.ID)
			logger.Warn("segment translation failed",
				logger.String("segment", seg.ID),
				logger.Err(err))
			continue
		}
		if len(segOut.Texts) > 0 {
			out.Texts[i] = segOut.Texts[0]
		}
		out.TokensIn += segOut.TokensIn
		out.TokensOut += segOut.TokensOut
	}

	if failed == len(batch.Segments) {
		return nil
	}
	return out
}

// decodeAndValidate restores placeholders in one translated segment and
// checks the round-trip invariants. Mismatches reflect the external
// service's imperfect compliance, so they are warnings, not errors.
func (o *Orchestrator) decodeAndValidate(seg segment.Segment, raw string, result *Result) string {
	if missing := placeholder.Missing(raw, seg.Placeholders); len(missing) > 0 && raw != "" {
		warn := fmt.Sprintf("segment %s: translation dropped placeholders %v", seg.ID, missing)
		result.Warnings = append(result.Warnings, warn)
		logger.Warn("placeholder round-trip mismatch",
			logger.String("segment", seg.ID),
			logger.Any("missing", missing))
	}

	decoded := placeholder.Decode(raw, seg.Placeholders)

	if got, want := strings.Count(decoded, "\n"), seg.NewlineCount(); got != want && raw != "" {
		warn := fmt.Sprintf("segment %s: newline count %d differs from source %d", seg.ID, got, want)
		result.Warnings = append(result.Warnings, warn)
		logger.Warn("newline count mismatch",
			logger.String("segment", seg.ID),
			logger.Int("got", got),
			logger.Int("want", want))
	}

	return decoded
}

// backoffDelay doubles per attempt: delay, 2*delay, 4*delay, capped.
func (o *Orchestrator) backoffDelay(attempt int) time.Duration {
	delay := o.cfg.RetryDelay * time.Duration(1<<uint(attempt-1))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BuildBatches partitions segments into ordered batches whose joined size
// stays within maxChars. A segment larger than the bound travels alone.
func BuildBatches(segments []segment.Segment, maxChars int) []Batch {
	if len(segments) == 0 {
		return nil
	}

	separatorSize := len(BatchSeparator)

	var batches []Batch
	var current []segment.Segment
	currentSize := 0

	flush := func() {
		if len(current) > 0 {
			batches = append(batches, Batch{Index: len(batches), Segments: current, State: BatchPending})
			current = nil
			currentSize = 0
		}
	}

	for _, seg := range segments {
		size := len(seg.Text)

		if size >= maxChars {
			flush()
			batches = append(batches, Batch{Index: len(batches), Segments: []segment.Segment{seg}, State: BatchPending})
			continue
		}

		additional := size
		if len(current) > 0 {
			additional += separatorSize
		}

		if currentSize+additional > maxChars {
			flush()
			current = []segment.Segment{seg}
			currentSize = size
		} else {
			current = append(current, seg)
			currentSize += additional
		}
	}
	flush()

	return batches
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
