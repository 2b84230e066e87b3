package enrich

import (
	"context"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/NavagantProd/prospectindata"
)

// Endpoints names the upstream operations the pipeline drives. Defaults match
// the professional-data provider's v2 layout.
type Endpoints struct {
	MemberSearch   string
	MemberCollect  string
	CompanySearch  string
	CompanyCollect string
}

// DefaultEndpoints is the provider's search/collect endpoint layout.
var DefaultEndpoints = Endpoints{
	MemberSearch:   "/member/search/filter",
	MemberCollect:  "/member/collect",
	CompanySearch:  "/company_base/search/filter",
	CompanyCollect: "/company_base/collect",
}

// Config tunes a Pipeline.
type Config struct {
	// Workers bounds concurrent in-flight leads. Defaults to 4. All workers
	// share the client's rate limiter, so this controls memory and
	// goroutine pressure, not upstream request rate.
	Workers   int
	Endpoints Endpoints
	Flatten   FlattenOptions
}

func (cfg Config) withDefaults() Config {
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.Endpoints == (Endpoints{}) {
		cfg.Endpoints = DefaultEndpoints
	}
	return cfg
}

// Stats counts API usage across a run. All fields are updated atomically.
type Stats struct {
	MemberSearches  int64
	MemberCollects  int64
	CompanySearches int64
	CompanyCollects int64
	NotFound        int64
	Errors          int64
}

// Pipeline enriches leads row by row through one shared client. A failing or
// empty row never aborts the batch: outcomes are recorded per row in the
// enrichment_status / enrichment_error columns.
type Pipeline struct {
	client *prospectindata.Client
	cfg    Config
	logger prospectindata.Logger
	stats  Stats
}

// NewPipeline builds a pipeline over client. logger may be nil.
func NewPipeline(client *prospectindata.Client, cfg Config, logger prospectindata.Logger) *Pipeline {
	if logger == nil {
		logger = prospectindata.NopLogger
	}
	return &Pipeline{
		client: client,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// Stats returns a snapshot of the usage counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		MemberSearches:  atomic.LoadInt64(&p.stats.MemberSearches),
		MemberCollects:  atomic.LoadInt64(&p.stats.MemberCollects),
		CompanySearches: atomic.LoadInt64(&p.stats.CompanySearches),
		CompanyCollects: atomic.LoadInt64(&p.stats.CompanyCollects),
		NotFound:        atomic.LoadInt64(&p.stats.NotFound),
		Errors:          atomic.LoadInt64(&p.stats.Errors),
	}
}

// Run enriches all leads with bounded concurrency and returns one row per
// lead in input order.
func (p *Pipeline) Run(ctx context.Context, leads []Lead) []Row {
	rows := make([]Row, len(leads))
	sem := make(chan struct{}, p.cfg.Workers)
	var wg sync.WaitGroup

	for i, lead := range leads {
		wg.Add(1)
		go func(i int, lead Lead) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			rows[i] = p.enrichLead(ctx, lead)
		}(i, lead)
	}
	wg.Wait()
	return rows
}

func (p *Pipeline) enrichLead(ctx context.Context, lead Lead) Row {
	row := Row{
		"name":            lead.Name,
		"email":           lead.Email,
		"company_name":    lead.CompanyName,
		"company_website": lead.CompanyWebsite,
	}
	calls := 0
	var firstErr error

	member, err := p.findMember(ctx, lead, &calls)
	if err != nil {
		firstErr = err
	}
	for _, kv := range Flatten(member, "employee", p.cfg.Flatten) {
		row[kv.Key] = kv.Value
	}

	company, err := p.findCompany(ctx, lead, &calls)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	for _, kv := range Flatten(company, "company", p.cfg.Flatten) {
		row[kv.Key] = kv.Value
	}

	switch {
	case firstErr != nil:
		atomic.AddInt64(&p.stats.Errors, 1)
		row["enrichment_status"] = "error"
		row["enrichment_error"] = firstErr.Error()
		p.logger.Warn("lead enrichment failed", "email", lead.Email, "company", lead.CompanyName, "error", firstErr.Error())
	case member == nil && company == nil:
		atomic.AddInt64(&p.stats.NotFound, 1)
		row["enrichment_status"] = "not_found"
	case member == nil || company == nil:
		row["enrichment_status"] = "partial"
	default:
		row["enrichment_status"] = "enriched"
	}
	row["api_calls_made"] = strconv.Itoa(calls)
	return row
}

// findMember searches by email and resolves the first usable hit, collecting
// by ID when the search returns bare IDs. A nil map with nil error means the
// upstream had nothing for this lead.
func (p *Pipeline) findMember(ctx context.Context, lead Lead, calls *int) (map[string]any, error) {
	if lead.Email == "" {
		return nil, nil
	}
	res, err := p.client.SearchFilter(ctx, p.cfg.Endpoints.MemberSearch, map[string]any{"email": lead.Email})
	*calls++
	atomic.AddInt64(&p.stats.MemberSearches, 1)
	if err != nil {
		return nil, err
	}
	return p.resolveHit(ctx, res, p.cfg.Endpoints.MemberCollect, &p.stats.MemberCollects, calls)
}

// findCompany searches by name and/or website the same way.
func (p *Pipeline) findCompany(ctx context.Context, lead Lead, calls *int) (map[string]any, error) {
	filter := map[string]any{}
	if lead.CompanyName != "" {
		filter["name"] = lead.CompanyName
	}
	if lead.CompanyWebsite != "" {
		filter["website"] = lead.CompanyWebsite
	}
	if len(filter) == 0 {
		return nil, nil
	}
	res, err := p.client.SearchFilter(ctx, p.cfg.Endpoints.CompanySearch, filter)
	*calls++
	atomic.AddInt64(&p.stats.CompanySearches, 1)
	if err != nil {
		return nil, err
	}
	return p.resolveHit(ctx, res, p.cfg.Endpoints.CompanyCollect, &p.stats.CompanyCollects, calls)
}

// resolveHit turns a search result into a full record: objects pass through,
// numeric IDs are collected, everything else is skipped.
func (p *Pipeline) resolveHit(ctx context.Context, res prospectindata.Result, collectEndpoint string, collects *int64, calls *int) (map[string]any, error) {
	switch res.Kind() {
	case prospectindata.KindAbsent:
		return nil, nil

	case prospectindata.KindObject:
		obj, _ := res.Object()
		return obj, nil

	case prospectindata.KindList:
		entries, _ := res.List()
		for _, entry := range entries {
			switch e := entry.(type) {
			case map[string]any:
				return e, nil
			case float64:
				if e != math.Trunc(e) {
					continue
				}
				collected, err := p.client.CollectByID(ctx, collectEndpoint, int64(e))
				*calls++
				atomic.AddInt64(collects, 1)
				if err != nil {
					return nil, err
				}
				if obj, ok := collected.Object(); ok {
					return obj, nil
				}
			default:
				p.logger.Debug("skipping unusable search hit", "endpoint", collectEndpoint, "hit", entry)
			}
		}
		return nil, nil

	default:
		p.logger.Debug("scalar search result, nothing to collect", "endpoint", collectEndpoint)
		return nil, nil
	}
}
