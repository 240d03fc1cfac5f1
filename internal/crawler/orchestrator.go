package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/ghsubfinder/internal/credential"
	"github.com/nao1215/ghsubfinder/internal/github"
	"github.com/nao1215/ghsubfinder/internal/model"
	"github.com/nao1215/ghsubfinder/internal/pattern"
)

// Client runs code searches and downloads result files.
// *github.Client implements it.
type Client interface {
	Search(ctx context.Context, query string, page int, token string) github.SearchResult
	Fetch(ctx context.Context, item github.Item, token string) github.FetchResult
}

// Pool hands out credentials and withholds rate-limited ones.
// *credential.Pool implements it.
type Pool interface {
	Acquire() (credential.Credential, bool)
	Disable(token string, cooldown time.Duration)
	NextAvailableAt() time.Time
	Len() int
}

// Default policy values.
const (
	DefaultMaxPages       = 10
	DefaultWorkers        = 30
	DefaultCooldown       = 61 * time.Second
	DefaultRateLimitPause = 1 * time.Second
	DefaultErrorPause     = 500 * time.Millisecond
	DefaultExhaustionWait = 3 * time.Second
	DefaultPageDelay      = 200 * time.Millisecond
)

// Config holds the crawl policy.
type Config struct {
	// MaxPages is the number of result pages requested per query.
	MaxPages int

	// Workers caps concurrent downloads within one page.
	Workers int

	// Cooldown is how long a rate-limited credential is withheld.
	Cooldown time.Duration

	// RateLimitPause is the wait before retrying a rate-limited search.
	RateLimitPause time.Duration

	// ErrorPause is the wait after a search error before the next query.
	ErrorPause time.Duration

	// ExhaustionWait is the wait between attempts when no credential is
	// available.
	ExhaustionWait time.Duration

	// PageDelay is the pause after each page of results.
	PageDelay time.Duration

	// StopOnExhaustion ends the run instead of waiting when every
	// credential is cooling down.
	StopOnExhaustion bool

	// Quick runs only the bare keyword query.
	Quick bool

	// Languages and Noise extend the query plan in a full run.
	Languages []string
	Noise     []string
}

// DefaultConfig returns the standard crawl policy.
func DefaultConfig() Config {
	return Config{
		MaxPages:       DefaultMaxPages,
		Workers:        DefaultWorkers,
		Cooldown:       DefaultCooldown,
		RateLimitPause: DefaultRateLimitPause,
		ErrorPause:     DefaultErrorPause,
		ExhaustionWait: DefaultExhaustionWait,
		PageDelay:      DefaultPageDelay,
		Languages:      DefaultLanguages,
		Noise:          DefaultNoise,
	}
}

// Orchestrator drives one discovery run: it walks the query plan, pages
// through each query, and fans out downloads of unseen result files.
//
// Design decision: The query and page loops are sequential and only the
// downloads of a single page run concurrently. Pagination state and the
// retry-after-rate-limit logic therefore never race, and the only state
// shared between goroutines is the credential pool and the two sets.
type Orchestrator struct {
	client Client
	pool   Pool
	cfg    Config
	logger *slog.Logger

	// onDomain is called once for each newly found domain, from the
	// goroutine that found it.
	onDomain func(domain string)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger for progress and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOnDomain registers a callback for newly found domains. The callback
// may be invoked concurrently and must be safe for that.
func WithOnDomain(fn func(domain string)) Option {
	return func(o *Orchestrator) {
		o.onDomain = fn
	}
}

// New creates an Orchestrator. Zero values in cfg fall back to defaults.
func New(client Client, pool Pool, cfg Config, opts ...Option) *Orchestrator {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	o := &Orchestrator{
		client: client,
		pool:   pool,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// run holds the mutable state of one Run call.
type run struct {
	pattern *pattern.Pattern
	visited *VisitedSet
	found   *FoundDomainSet

	// mu guards report counters updated by download workers.
	mu     sync.Mutex
	report *model.RunReport
}

// Run searches for target and returns the report. The returned report is
// never nil.
//
// The error is ErrCredentialsExhausted when the run stopped because no
// credential was available, or the context error when ctx was cancelled.
// In both cases the report holds everything found until then. Failures of
// individual searches and downloads are absorbed and only counted.
func (o *Orchestrator) Run(ctx context.Context, target string, pat *pattern.Pattern) (*model.RunReport, error) {
	report := model.NewRunReport(target, pat.Extended(), o.cfg.Quick)
	report.Keyword = pat.Keyword()
	report.Credentials = o.pool.Len()
	report.StartedAt = time.Now()

	plan := BuildPlan(pat.Keyword(), o.cfg.Quick, o.cfg.Languages, o.cfg.Noise)
	report.Queries = make([]model.QueryStats, len(plan))
	for i, q := range plan {
		report.Queries[i] = model.QueryStats{Query: q, Status: model.QuerySkipped}
	}

	r := &run{
		pattern: pat,
		visited: NewVisitedSet(),
		found:   NewFoundDomainSet(),
		report:  report,
	}

	o.logger.Info("starting run",
		"target", target,
		"keyword", pat.Keyword(),
		"mode", report.Mode(),
		"queries", len(plan),
		"pool_size", report.Credentials,
	)

	var runErr error
	for i := range plan {
		err := o.runQuery(ctx, r, i)
		report.Stats.Queries++
		if err != nil {
			if errors.Is(err, ErrCredentialsExhausted) {
				report.Exhausted = true
			} else {
				report.Interrupted = true
			}
			runErr = err
			break
		}
	}

	report.Domains = r.found.Sorted()
	report.FinishedAt = time.Now()

	o.logger.Info("run finished",
		"target", target,
		"domains", len(report.Domains),
		"queries", report.Stats.Queries,
		"abandoned", report.Stats.QueriesAbandoned,
		"files", report.Stats.FetchOK,
		"visited", r.visited.Len(),
		"duration", report.Duration().Round(time.Millisecond),
	)

	return report, runErr
}

// runQuery pages through one query. It returns an error only when the whole
// run must stop.
func (o *Orchestrator) runQuery(ctx context.Context, r *run, idx int) error {
	qs := &r.report.Queries[idx]
	stats := &r.report.Stats

	page := 1
	for page <= o.cfg.MaxPages {
		cred, err := o.acquire(ctx, r)
		if err != nil {
			if errors.Is(err, ErrCredentialsExhausted) {
				qs.Status = model.QueryExhausted
			} else {
				qs.Status = model.QueryCancelled
			}
			return err
		}

		res := o.client.Search(ctx, qs.Query, page, cred.Token)
		switch res.Kind {
		case github.KindOK:
		case github.KindRateLimited:
			stats.SearchRateLimited++
			o.pool.Disable(cred.Token, o.cfg.Cooldown)
			o.logger.Warn("rate limit hit, credential disabled",
				"fingerprint", credential.Fingerprint(cred.Token),
				"cooldown", o.cfg.Cooldown,
				"message", res.Message,
			)
			if err := sleep(ctx, o.cfg.RateLimitPause); err != nil {
				qs.Status = model.QueryCancelled
				return err
			}
			continue
		default:
			stats.QueriesAbandoned++
			qs.Status = model.QueryAbandoned
			qs.Reason = res.Code
			o.logger.Warn("search error, abandoning query",
				"query", qs.Query,
				"page", page,
				"kind", res.Kind.String(),
				"code", res.Code,
			)
			if err := sleep(ctx, o.cfg.ErrorPause); err != nil {
				qs.Status = model.QueryCancelled
				return err
			}
			return nil
		}

		if page == 1 {
			qs.TotalCount = res.TotalCount
		}
		if len(res.Items) == 0 {
			o.logger.Debug("no items",
				"query", qs.Query,
				"page", page,
				"total", res.TotalCount,
			)
			qs.Status = model.QueryCompleted
			return nil
		}

		qs.Pages++
		qs.Items += len(res.Items)
		stats.Pages++
		stats.Items += len(res.Items)

		o.fetchPage(ctx, r, qs, res.Items, cred.Token)

		page++
		if err := sleep(ctx, o.cfg.PageDelay); err != nil {
			qs.Status = model.QueryCancelled
			return err
		}
	}

	qs.Status = model.QueryMaxPages
	return nil
}

// acquire returns an available credential, waiting in ExhaustionWait steps
// while all are cooling down unless StopOnExhaustion is set.
func (o *Orchestrator) acquire(ctx context.Context, r *run) (credential.Credential, error) {
	for {
		if err := ctx.Err(); err != nil {
			return credential.Credential{}, err
		}
		if cred, ok := o.pool.Acquire(); ok {
			return cred, nil
		}
		if o.cfg.StopOnExhaustion {
			o.logger.Error("no available credential, stopping")
			return credential.Credential{}, ErrCredentialsExhausted
		}

		r.report.Stats.ExhaustionWaits++
		o.logger.Info("no available credential, waiting",
			"wait", o.cfg.ExhaustionWait,
			"retry_at", o.pool.NextAvailableAt().Format(time.TimeOnly),
		)
		if err := sleep(ctx, o.cfg.ExhaustionWait); err != nil {
			return credential.Credential{}, err
		}
	}
}

// fetchPage downloads every unseen item of one page with token and scans
// the bodies. It returns after all downloads have finished.
//
// Design decision: Workers never return an error to the group, so one
// failed download cannot cancel its siblings. Downloads run on a context
// detached from ctx cancellation: once a page is submitted every download
// runs to completion (bounded by the fetch timeout) and its domains are kept.
func (o *Orchestrator) fetchPage(ctx context.Context, r *run, qs *model.QueryStats, items []github.Item, token string) {
	fctx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(o.cfg.Workers)

	for _, item := range items {
		if item.HTMLURL == "" {
			continue
		}
		if !r.visited.Add(item.HTMLURL) {
			r.mu.Lock()
			r.report.Stats.DuplicateItems++
			r.mu.Unlock()
			continue
		}

		g.Go(func() error {
			res := o.client.Fetch(fctx, item, token)
			o.handleFetch(r, qs, item, token, res)
			return nil
		})
	}

	_ = g.Wait()
}

// handleFetch applies the result of one download.
func (o *Orchestrator) handleFetch(r *run, qs *model.QueryStats, item github.Item, token string, res github.FetchResult) {
	switch res.Kind {
	case github.KindOK:
	case github.KindRateLimited:
		o.pool.Disable(token, o.cfg.Cooldown)
		r.mu.Lock()
		r.report.Stats.FetchRateLimited++
		r.mu.Unlock()
		return
	default:
		o.logger.Debug("download skipped",
			"url", item.HTMLURL,
			"kind", res.Kind.String(),
			"code", res.Code,
		)
		r.mu.Lock()
		r.report.Stats.FetchMiss++
		r.mu.Unlock()
		return
	}

	newDomains := 0
	for _, d := range r.pattern.FindAll(res.Body) {
		if !r.found.Add(d) {
			continue
		}
		newDomains++
		o.logger.Info("found", "domain", d, "repository", item.Repository.FullName)
		if o.onDomain != nil {
			o.onDomain(d)
		}
	}

	r.mu.Lock()
	r.report.Stats.FetchOK++
	qs.NewDomains += newDomains
	r.mu.Unlock()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
