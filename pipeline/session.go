package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/webrag"
)

// State is the lifecycle state of a Session.
type State int

// Session states.
const (
	StateUninitialized State = iota
	StateIndexing
	StateReady
	StateQuerying
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIndexing:
		return "indexing"
	case StateReady:
		return "ready"
	case StateQuerying:
		return "querying"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Stage names the step of Initialize that failed.
type Stage string

// Initialize stages.
const (
	StageCrawl Stage = "crawl"
	StageChunk Stage = "chunk"
	StageIndex Stage = "index"
)

// Session owns one active site index and sequences the build phase
// (crawl, chunk, index) and the ask phase (retrieve, compose). Calls that
// do not fit the current state are rejected with ESTATE, never queued.
type Session struct {
	Crawler   webrag.Crawler
	Chunker   *webrag.Chunker
	Indexer   *Indexer
	Retriever *Retriever
	Composer  *Composer

	// Tokens, if set, counts tokens of crawled pages for site statistics.
	Tokens webrag.TokenCounter

	MaxPages  int
	TopK      int
	Dimension int
	Logger    *slog.Logger

	mu    sync.Mutex
	state State
	stage Stage
	err   error
	site  *webrag.Site
}

// Open checks the embedder's dimension and resumes the published index,
// if the store has one. It is valid only before the first Initialize.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return webrag.Errorf(webrag.ESTATE, "session already %s", s.state)
	}

	dim := s.Dimension
	if dim <= 0 {
		dim = webrag.DefaultDimension
	}
	if err := webrag.CheckDimension(ctx, s.Retriever.Embedder, dim); err != nil {
		return err
	}

	site, err := s.Retriever.Store.ActiveSite(ctx)
	if webrag.ErrorCode(err) == webrag.ENOTFOUND {
		return nil
	} else if err != nil {
		return err
	}
	s.site = site
	s.state = StateReady
	return nil
}

// Initialize crawls url and replaces the active index with the new site.
// It is rejected while indexing or answering. On failure the session moves
// to StateError with the failing stage recorded.
func (s *Session) Initialize(ctx context.Context, url string) (*webrag.Site, error) {
	s.mu.Lock()
	switch s.state {
	case StateIndexing:
		s.mu.Unlock()
		return nil, webrag.Errorf(webrag.ESTATE, "indexing already in progress")
	case StateQuerying:
		s.mu.Unlock()
		return nil, webrag.Errorf(webrag.ESTATE, "cannot re-index while a question is being answered")
	}
	s.state = StateIndexing
	s.stage = ""
	s.err = nil
	s.mu.Unlock()

	site, stage, err := s.build(ctx, url)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateError
		s.stage = stage
		s.err = err
		s.site = nil
		return nil, err
	}
	s.state = StateReady
	s.site = site
	return site, nil
}

func (s *Session) build(ctx context.Context, url string) (*webrag.Site, Stage, error) {
	logger := loggerOrDiscard(s.Logger)

	name, err := webrag.SiteName(url)
	if err != nil {
		return nil, StageCrawl, err
	}

	// The previous site is gone before the new one is crawled, so a failed
	// initialize never leaves it answerable.
	if err := s.Indexer.Reset(ctx); err != nil {
		return nil, StageIndex, err
	}

	maxPages := s.MaxPages
	if maxPages <= 0 {
		maxPages = webrag.DefaultMaxPages
	}
	pages, err := s.Crawler.Crawl(ctx, url, maxPages)
	if err != nil {
		return nil, StageCrawl, err
	}
	logger.Info("crawled site", "url", url, "pages", len(pages))

	drafts := s.Chunker.Chunk(pages)
	if len(drafts) == 0 {
		return nil, StageChunk, webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, nil,
			"no text found on %d crawled pages", len(pages))
	}

	site := &webrag.Site{
		URL:       url,
		Name:      name,
		Pages:     len(pages),
		IndexedAt: time.Now().UTC(),
	}
	for _, p := range pages {
		site.Bytes += len(p.Content)
		if s.Tokens != nil {
			if n, err := s.Tokens.CountTokens(ctx, p.Content); err == nil {
				site.Tokens += n
			}
		}
	}

	if _, err := s.Indexer.Build(ctx, site, drafts); err != nil {
		return nil, StageIndex, err
	}
	return site, "", nil
}

// Ask answers query from the active index. It is valid only in
// StateReady; a failed ask leaves the session ready.
func (s *Session) Ask(ctx context.Context, query string) (*webrag.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "question required")
	}

	s.mu.Lock()
	switch s.state {
	case StateUninitialized:
		s.mu.Unlock()
		return nil, webrag.Errorf(webrag.ESTATE, "initialize the pipeline with a website URL first")
	case StateIndexing:
		s.mu.Unlock()
		return nil, webrag.Errorf(webrag.ESTATE, "indexing in progress")
	case StateQuerying:
		s.mu.Unlock()
		return nil, webrag.Errorf(webrag.ESTATE, "another question is being answered")
	case StateError:
		stage := s.stage
		s.mu.Unlock()
		return nil, webrag.Errorf(webrag.ESTATE, "initialization failed during %s; reset or initialize again", stage)
	}
	s.state = StateQuerying
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateReady
		s.mu.Unlock()
	}()

	retrieved, err := s.Retriever.Retrieve(ctx, query, s.TopK)
	if err != nil {
		return nil, err
	}
	return s.Composer.Answer(ctx, query, retrieved)
}

// Reset drops the index and returns the session to StateUninitialized.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIndexing, StateQuerying:
		return webrag.Errorf(webrag.ESTATE, "cannot reset while %s", s.state)
	}
	if err := s.Indexer.Reset(ctx); err != nil {
		return err
	}
	s.state = StateUninitialized
	s.stage = ""
	s.err = nil
	s.site = nil
	return nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Site returns the site behind the active index, or nil.
func (s *Session) Site() *webrag.Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.site == nil {
		return nil
	}
	cp := *s.site
	return &cp
}

// Stage returns the stage that failed when the session is in StateError.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Err returns the error that moved the session to StateError.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
