// Package pipeline orchestrates one ingestion run: ensure sources exist,
// fetch from all configured providers, deduplicate, store, analyze.
package pipeline

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/sgriesel/newslens/internal/analyze"
	"github.com/sgriesel/newslens/internal/collect"
	"github.com/sgriesel/newslens/internal/config"
	"github.com/sgriesel/newslens/internal/database"
	"github.com/sgriesel/newslens/internal/fetch"
	"github.com/sgriesel/newslens/internal/textutil"
)

// Analyzer is the analysis dependency of the pipeline. *analyze.Client
// satisfies it; tests inject fakes.
type Analyzer interface {
	Analyze(ctx context.Context, in analyze.Input) (*analyze.Result, error)
	Model() string
}

// Result holds the aggregate counts of one ingestion run. Fetched and
// Analyzed are the externally visible signal of run health.
type Result struct {
	Fetched        int // newly stored articles, post-dedup
	Analyzed       int
	Duplicates     int
	Dropped        int // malformed or unroutable items
	AnalysisErrors int
	Sources        map[string]int // new articles per source name
}

// boundFetcher pairs a fetcher with the source its articles belong to.
type boundFetcher struct {
	fetcher collect.Fetcher
	source  *database.Source
}

// Pipeline drives one ingestion run.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	analyzer Analyzer
	backfill *fetch.ContentFetcher
}

// New creates a pipeline. When no analyzer credential is configured the run
// still ingests; articles are simply stored unanalyzed.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	p := &Pipeline{cfg: cfg, db: db}

	if key := cfg.AnalyzerAPIKey(); key != "" {
		client, err := analyze.NewClient(key, cfg.Analyzer.Model,
			cfg.Analyzer.RateLimitPerMinute, cfg.Analyzer.MinContentLen)
		if err != nil {
			log.Printf("Analyzer unavailable: %v", err)
		} else {
			p.analyzer = client
		}
	} else {
		log.Printf("%s not set, articles will be stored without analysis", cfg.Analyzer.APIKeyEnv)
	}

	if cfg.Ingest.FetchFullContent {
		p.backfill = fetch.NewContentFetcher(db, 15*time.Second,
			cfg.Analyzer.MinContentLen, cfg.Ingest.MaxCleanLen)
	}

	return p
}

// SetAnalyzer overrides the analyzer, used by tests and the serve command.
func (p *Pipeline) SetAnalyzer(a Analyzer) {
	p.analyzer = a
}

// Run executes one ingestion pass. Per-item failures never abort the run;
// only a total absence of configured sources short-circuits it.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	r := &Result{Sources: make(map[string]int)}

	bound, routes, err := p.ensureSources()
	if err != nil {
		return nil, err
	}
	if len(bound) == 0 {
		log.Println("No sources configured, nothing to ingest")
		return r, nil
	}

	for _, b := range bound {
		items, err := b.fetcher.Fetch(ctx)
		if err != nil {
			log.Printf("Fetch from %s failed: %v", b.fetcher.Name(), err)
			continue
		}
		log.Printf("Fetched %d items from %s", len(items), b.fetcher.Name())

		if len(items) > 0 {
			if err := p.db.TouchSource(b.source.ID); err != nil {
				log.Printf("Error touching source %s: %v", b.source.Name, err)
			}
		}

		for _, item := range items {
			p.processItem(ctx, item, routes, bound, r)
		}
	}

	log.Printf("Ingestion complete: %d new, %d duplicates, %d analyzed, %d analysis errors",
		r.Fetched, r.Duplicates, r.Analyzed, r.AnalysisErrors)
	return r, nil
}

// ensureSources creates the Source row for every configured provider and
// builds the routing table from provider tags to sources.
func (p *Pipeline) ensureSources() ([]boundFetcher, map[string]*database.Source, error) {
	var bound []boundFetcher
	routes := make(map[string]*database.Source)

	for _, f := range p.cfg.Sources.Feeds {
		if f.URL == "" || f.Name == "" {
			continue
		}
		src, err := p.db.EnsureSource(f.Name, "rss")
		if err != nil {
			return nil, nil, err
		}
		routes["feed:"+f.Name] = src
		bound = append(bound, boundFetcher{
			fetcher: collect.NewFeedFetcher(f.URL, f.Name),
			source:  src,
		})
	}

	finn := p.cfg.Sources.APIs.Finnhub
	if finn.Enabled {
		if key := envKey(finn.APIKeyEnv); key != "" {
			src, err := p.db.EnsureSource("finnhub", "finnhub")
			if err != nil {
				return nil, nil, err
			}
			routes["finnhub"] = src
			bound = append(bound, boundFetcher{
				fetcher: collect.NewFinnhubFetcher(key, finn.Category),
				source:  src,
			})
		} else {
			log.Printf("Finnhub enabled but %s not set, skipping", finn.APIKeyEnv)
		}
	}

	nd := p.cfg.Sources.APIs.Newsdata
	if nd.Enabled {
		if key := envKey(nd.APIKeyEnv); key != "" {
			src, err := p.db.EnsureSource("newsdata", "newsdata")
			if err != nil {
				return nil, nil, err
			}
			routes["newsdata"] = src
			bound = append(bound, boundFetcher{
				fetcher: collect.NewNewsdataFetcher(key, nd.Country, nd.Language),
				source:  src,
			})
		} else {
			log.Printf("NewsData enabled but %s not set, skipping", nd.APIKeyEnv)
		}
	}

	return bound, routes, nil
}

// processItem runs one item through dedup, store and analysis. Every
// database mutation commits on its own, so a crash mid-run loses at most
// this item's analysis.
func (p *Pipeline) processItem(ctx context.Context, item collect.Article, routes map[string]*database.Source, bound []boundFetcher, r *Result) {
	src := routeSource(item.SourceName, routes)
	if src == nil {
		if p.cfg.Ingest.UnroutedPolicy == "drop" {
			log.Printf("Dropping unroutable item %q (tag %s)", item.Title, item.SourceName)
			r.Dropped++
			return
		}
		src = bound[0].source
		log.Printf("Attributing unroutable item %q (tag %s) to %s", item.Title, item.SourceName, src.Name)
	}

	existing, err := p.db.GetArticleByHash(item.Hash)
	if err != nil {
		log.Printf("Error checking hash for %q: %v", item.Title, err)
		return
	}
	if existing != nil {
		r.Duplicates++
		return
	}

	clean := textutil.Clean(item.Content, p.cfg.Ingest.MaxCleanLen)
	article := &database.Article{
		SourceID:     src.ID,
		Title:        item.Title,
		Link:         item.Link,
		ContentRaw:   &item.Content,
		ContentClean: &clean,
		Hash:         item.Hash,
	}
	if item.PublishedAt != nil {
		s := item.PublishedAt.UTC().Format(time.RFC3339)
		article.PublishedAt = &s
	}

	id, err := p.db.InsertArticle(article)
	if err != nil {
		log.Printf("Error storing %q: %v", item.Title, err)
		return
	}
	article.ID = id
	r.Fetched++
	r.Sources[src.Name]++

	if p.backfill != nil && len(clean) < p.cfg.Analyzer.MinContentLen {
		if raw, err := p.backfill.FetchArticle(item.Link); err == nil && raw != "" {
			clean = textutil.Clean(raw, p.cfg.Ingest.MaxCleanLen)
			if err := p.db.UpdateArticleContent(id, raw, clean); err != nil {
				log.Printf("Error backfilling %q: %v", item.Title, err)
			}
		}
	}

	if p.analyzer == nil {
		return
	}

	in := analyze.Input{
		Title:   item.Title,
		Content: clean,
		Source:  src.Name,
	}
	if article.PublishedAt != nil {
		in.PublishedAt = *article.PublishedAt
	}

	result, err := p.analyzer.Analyze(ctx, in)
	if err != nil {
		if errors.Is(err, analyze.ErrNoContent) {
			log.Printf("Skipping analysis for %q: no usable content", item.Title)
		} else {
			log.Printf("Analysis failed for %q: %v", item.Title, err)
			r.AnalysisErrors++
		}
		return
	}

	model := p.analyzer.Model()
	_, err = p.db.InsertAnalysis(&database.Analysis{
		ArticleID:      id,
		Summary:        result.Summary,
		SentimentLabel: result.Sentiment.Label,
		SentimentScore: result.Sentiment.Score,
		Keywords:       result.Keywords,
		Meta: &database.AnalysisMeta{
			Reason:       result.Reason,
			SafetyFlag:   result.SafetyFlag,
			SafetyReason: result.SafetyReason,
		},
		ModelName: &model,
	})
	if err != nil {
		log.Printf("Error storing analysis for %q: %v", item.Title, err)
		r.AnalysisErrors++
		return
	}
	r.Analyzed++
}

// routeSource maps a provider tag to a source: exact tag first, then the
// prefix before ':'. Returns nil when neither matches.
func routeSource(tag string, routes map[string]*database.Source) *database.Source {
	if src, ok := routes[tag]; ok {
		return src
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ':' {
			if src, ok := routes[tag[:i]]; ok {
				return src
			}
			break
		}
	}
	return nil
}

func envKey(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
