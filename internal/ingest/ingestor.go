// Package ingest implements the lead ingestion pipeline: search each
// configured query, filter the raw results, and persist new leads with
// content-derived ids.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hdcnetworks/leadscan/internal/filter"
	"github.com/hdcnetworks/leadscan/internal/leads"
	"github.com/hdcnetworks/leadscan/internal/metrics"
)

// reasonSeenURL marks results skipped because the URL already appeared
// earlier in the same run.
const reasonSeenURL = "seen_url"

// notifyTimeout bounds the fire-and-forget delivery after the run.
const notifyTimeout = 15 * time.Second

// Config controls Ingestor behavior.
type Config struct {
	// Timeout is the wall-clock budget for the whole run. Zero means
	// no deadline.
	Timeout time.Duration
	// Concurrency bounds how many queries run at once. Values below 1
	// are treated as 1.
	Concurrency int
	// ArchivePrefix namespaces archived raw responses.
	ArchivePrefix string
	// ReportSampleSize caps how many stored leads the report lists.
	ReportSampleSize int
}

// Deps carries the collaborators the pipeline consumes. Searcher,
// Store, Filter, Hasher, Clock and IDGen are required; Notifier,
// Publisher and Archive are optional.
type Deps struct {
	Searcher  leads.Searcher
	Store     leads.Store
	Filter    *filter.Filter
	Hasher    leads.Hasher
	Clock     leads.Clock
	IDGen     leads.IDGenerator
	Notifier  leads.Notifier
	Publisher leads.Publisher
	Archive   leads.BlobStore
}

// Ingestor executes one ingestion run.
type Ingestor struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// New constructs an Ingestor, validating required dependencies.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Ingestor, error) {
	if deps.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Filter == nil {
		return nil, fmt.Errorf("filter is required")
	}
	if deps.Hasher == nil {
		return nil, fmt.Errorf("hasher is required")
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if deps.IDGen == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.ReportSampleSize <= 0 {
		cfg.ReportSampleSize = 30
	}
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "responses"
	}
	return &Ingestor{deps: deps, cfg: cfg, logger: logger}, nil
}

// Run executes one pass over the query list. An empty list is a fatal
// configuration error and performs no I/O. Per-query and per-lead
// failures are recorded in the summary and never abort the pass; only
// the run deadline does.
func (ing *Ingestor) Run(ctx context.Context, queries []string) (leads.Summary, error) {
	if len(queries) == 0 {
		return leads.Summary{}, leads.NewConfigError("query list is empty")
	}

	runID, err := ing.deps.IDGen.NewID()
	if err != nil {
		return leads.Summary{}, fmt.Errorf("generate run id: %w", err)
	}

	if ing.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ing.cfg.Timeout)
		defer cancel()
	}

	log := ing.logger.With(zap.String("run_id", runID))
	log.Info("ingestion run started", zap.Int("queries", len(queries)))

	summary := leads.Summary{
		RunID:     runID,
		Source:    leads.Source,
		StartedAt: ing.deps.Clock.Now(),
	}

	// URLs seen this run; the first query to surface a URL wins and
	// later queries skip it, as the agent has always behaved.
	var (
		seenMu sync.Mutex
		seen   = make(map[string]struct{})
	)
	markSeen := func(url string) bool {
		seenMu.Lock()
		defer seenMu.Unlock()
		if _, dup := seen[url]; dup {
			return false
		}
		seen[url] = struct{}{}
		return true
	}

	outcomes := make([]leads.QueryOutcome, len(queries))
	stored := make([][]leads.Lead, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.cfg.Concurrency)
	for i, query := range queries {
		g.Go(func() error {
			if gctx.Err() != nil {
				outcomes[i] = leads.QueryOutcome{Query: query, Error: gctx.Err().Error()}
				return nil
			}
			outcomes[i], stored[i] = ing.processQuery(gctx, log, runID, i, query, markSeen)
			return nil
		})
	}
	// Workers never return errors; failures live in the outcomes.
	_ = g.Wait()

	for i := range outcomes {
		summary.Add(outcomes[i])
		summary.StoredLeads = append(summary.StoredLeads, stored[i]...)
	}
	summary.FinishedAt = ing.deps.Clock.Now()
	metrics.RecordRunDuration(summary.FinishedAt.Sub(summary.StartedAt))

	log.Info("ingestion run finished",
		zap.Int("queries_attempted", summary.QueriesAttempted),
		zap.Int("queries_failed", summary.QueriesFailed),
		zap.Int("results", summary.Results),
		zap.Int("stored", summary.Stored),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("filtered", summary.Filtered),
		zap.Int("persist_errors", summary.PersistErrors),
	)

	if ctx.Err() != nil {
		// Completed writes are already durable; the deadline only cost
		// the remaining queries.
		return summary, fmt.Errorf("run aborted: %w", ctx.Err())
	}

	ing.deliver(ctx, log, summary)
	return summary, nil
}

func (ing *Ingestor) processQuery(
	ctx context.Context,
	log *zap.Logger,
	runID string,
	index int,
	query string,
	markSeen func(string) bool,
) (leads.QueryOutcome, []leads.Lead) {
	outcome := leads.QueryOutcome{Query: query}

	start := time.Now()
	resp, err := ing.deps.Searcher.Search(ctx, query)
	if err != nil {
		metrics.RecordQuery("error", time.Since(start))
		qErr := &leads.QueryError{Query: query, Err: err}
		outcome.Error = err.Error()
		log.Warn("search failed", zap.String("query", query), zap.Error(qErr))
		return outcome, nil
	}
	metrics.RecordQuery("ok", time.Since(start))
	metrics.RecordResults(len(resp.Results))
	outcome.Results = len(resp.Results)
	log.Debug("search returned", zap.String("query", query), zap.Int("results", len(resp.Results)))

	ing.archiveResponse(ctx, log, runID, index, resp.Raw)

	var storedLeads []leads.Lead
	for _, result := range resp.Results {
		verdict := ing.deps.Filter.Judge(result)
		if !verdict.Keep {
			outcome.RecordFiltered(verdict.Reason)
			metrics.RecordFiltered(verdict.Reason)
			log.Debug("result filtered",
				zap.String("url", result.URL),
				zap.String("reason", verdict.Reason),
			)
			continue
		}
		if !markSeen(result.URL) {
			outcome.RecordFiltered(reasonSeenURL)
			metrics.RecordFiltered(reasonSeenURL)
			continue
		}

		lead, err := ing.buildLead(result, query, verdict)
		if err != nil {
			outcome.PersistErrors = append(outcome.PersistErrors, err.Error())
			metrics.RecordPersistError()
			continue
		}

		inserted, err := ing.deps.Store.Put(ctx, lead)
		if err != nil {
			pErr := &leads.PersistError{LeadID: lead.ID, URL: lead.URL, Err: err}
			outcome.PersistErrors = append(outcome.PersistErrors, pErr.Error())
			metrics.RecordPersistError()
			log.Warn("persist failed", zap.String("lead_id", lead.ID), zap.Error(pErr))
			continue
		}
		if inserted {
			outcome.Stored++
			metrics.RecordStored()
			storedLeads = append(storedLeads, lead)
			log.Info("lead stored",
				zap.String("lead_id", lead.ID),
				zap.String("url", lead.URL),
				zap.String("domain", lead.Domain),
				zap.Bool("important", lead.ImportantDomain),
			)
		} else {
			outcome.Duplicates++
			metrics.RecordDuplicate()
		}
	}
	return outcome, storedLeads
}

func (ing *Ingestor) buildLead(result leads.SearchResult, query string, verdict filter.Verdict) (leads.Lead, error) {
	id, err := leads.ComputeID(ing.deps.Hasher, result.URL, query)
	if err != nil {
		return leads.Lead{}, fmt.Errorf("compute lead id for %s: %w", result.URL, err)
	}
	return leads.Lead{
		ID:              id,
		URL:             result.URL,
		Title:           result.Title,
		Snippet:         result.Snippet,
		Source:          leads.Source,
		Query:           query,
		Domain:          verdict.Domain,
		Emails:          verdict.Emails,
		HasLocation:     verdict.HasLocation,
		HasOpportunity:  verdict.HasOpportunity,
		ImportantDomain: verdict.ImportantDomain,
		CreatedAt:       ing.deps.Clock.Now(),
	}, nil
}

func (ing *Ingestor) archiveResponse(ctx context.Context, log *zap.Logger, runID string, index int, raw []byte) {
	if ing.deps.Archive == nil || len(raw) == 0 {
		return
	}
	path := fmt.Sprintf("%s/%s/q%03d.json", ing.cfg.ArchivePrefix, runID, index)
	uri, err := ing.deps.Archive.PutObject(ctx, path, "application/json", bytes.NewReader(raw))
	if err != nil {
		log.Warn("archive raw response failed", zap.String("path", path), zap.Error(err))
		return
	}
	log.Debug("raw response archived", zap.String("uri", uri))
}

// deliver hands the summary to the notifier and publisher. Both are
// fire-and-forget: failures are logged and never change the outcome.
func (ing *Ingestor) deliver(ctx context.Context, log *zap.Logger, summary leads.Summary) {
	if ing.deps.Notifier == nil && ing.deps.Publisher == nil {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if ing.deps.Notifier != nil {
		if summary.Stored == 0 {
			log.Info("no new leads stored, skipping report")
		} else {
			subject := ReportSubject(summary)
			body := ReportBody(summary, ing.cfg.ReportSampleSize)
			if err := ing.deps.Notifier.Notify(dctx, subject, body); err != nil {
				log.Warn("report delivery failed", zap.Error(err))
			} else {
				log.Info("report delivered")
			}
		}
	}

	if ing.deps.Publisher != nil {
		msgID, err := ing.deps.Publisher.Publish(dctx, summary)
		if err != nil {
			log.Warn("summary publish failed", zap.Error(err))
		} else {
			log.Info("summary published", zap.String("message_id", msgID))
		}
	}
}
