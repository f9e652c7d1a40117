package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/crawl"
	"github.com/fwojciec/webrag/gemini"
	"github.com/fwojciec/webrag/goquery"
	"github.com/fwojciec/webrag/htmltomarkdown"
	webraghttp "github.com/fwojciec/webrag/http"
	"github.com/fwojciec/webrag/lru"
	"github.com/fwojciec/webrag/ollama"
	"github.com/fwojciec/webrag/pipeline"
	"github.com/fwojciec/webrag/readability"
	"github.com/fwojciec/webrag/rod"
	wslog "github.com/fwojciec/webrag/slog"
	"github.com/fwojciec/webrag/sqlite"
	"github.com/fwojciec/webrag/trafilatura"
	"google.golang.org/genai"
)

// tokenizerModel is the model whose local tokenizer counts crawled tokens.
const tokenizerModel = "gemini-2.5-flash"

// wiring builds the services a command needs from the parsed flags.
type wiring struct {
	main    *Main
	cli     *CLI
	logger  *slog.Logger
	stderr  io.Writer
	client  *genai.Client
	maxText int
	closers []func() error
}

// wire fills deps for cmd. Only init, ask and chat need models; status and
// reset touch the store alone.
func (w *wiring) wire(ctx context.Context, cmd string, deps *Dependencies) error {
	cli := w.cli

	store := wslog.NewLoggingVectorStore(sqlite.NewVectorStore(w.main.DB, cli.Dimension), w.logger)
	deps.Store = store

	chunker, err := webrag.NewChunker(cli.ChunkSize, cli.ChunkOverlap)
	if err != nil {
		fmt.Fprintf(w.stderr, "error: %s\n", webrag.ErrorMessage(err))
		return err
	}
	session := &pipeline.Session{
		Chunker:   chunker,
		Indexer:   &pipeline.Indexer{Store: store, Logger: w.logger},
		Retriever: &pipeline.Retriever{Store: store, Logger: w.logger},
		Composer:  &pipeline.Composer{MinScore: cli.MinScore, Logger: w.logger},
		MaxPages:  cli.MaxPages,
		TopK:      cli.TopK,
		Dimension: cli.Dimension,
		Logger:    w.logger,
	}
	deps.Session = session

	switch cmd {
	case "init", "ask", "chat":
	default:
		return nil
	}

	embedder, err := w.embedder(ctx)
	if err != nil {
		return err
	}
	session.Indexer.Embedder = embedder
	session.Indexer.MaxTextLength = w.maxText
	session.Retriever.Embedder = embedder

	if cmd != "init" {
		generator, err := w.generator(ctx)
		if err != nil {
			return err
		}
		session.Composer.Generator = generator
	}
	if cmd != "ask" {
		crawler, err := w.crawler()
		if err != nil {
			return err
		}
		session.Crawler = crawler
		session.Tokens = w.tokens()
	}

	if err := session.Open(ctx); err != nil {
		fmt.Fprintf(w.stderr, "error: %s\n", webrag.ErrorMessage(err))
		if webrag.ErrorReason(err) == webrag.ReasonDimensionMismatch {
			fmt.Fprintln(w.stderr, "Hint: --dimension must match the embedding model; run 'webrag reset --force' after changing models")
		}
		return err
	}
	return nil
}

func (w *wiring) close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		_ = w.closers[i]()
	}
}

func (w *wiring) genaiClient(ctx context.Context) (*genai.Client, error) {
	if w.client != nil {
		return w.client, nil
	}
	client, err := gemini.NewClient(ctx, os.Getenv("GEMINI_API_KEY"))
	if err != nil {
		fmt.Fprintln(w.stderr, "Hint: Set GEMINI_API_KEY. Get a key at https://aistudio.google.com/apikey")
		return nil, err
	}
	w.client = client
	return client, nil
}

func (w *wiring) embedder(ctx context.Context) (webrag.Embedder, error) {
	embedder := w.main.Embedder
	if embedder == nil {
		switch w.cli.Embedder {
		case "ollama":
			embedder = ollama.NewEmbedder(
				ollama.WithBaseURL(w.cli.OllamaURL),
				ollama.WithModel(w.cli.OllamaModel),
			)
			w.maxText = ollama.MaxInputChars
		default:
			client, err := w.genaiClient(ctx)
			if err != nil {
				return nil, err
			}
			e := gemini.NewEmbedder(client)
			e.Model = w.cli.EmbeddingModel
			e.Dimension = w.cli.Dimension
			embedder = e
			w.maxText = e.MaxInputChars
		}
	}

	embedder = wslog.NewLoggingEmbedder(embedder, w.logger)
	if w.cli.CacheSize > 0 {
		embedder = lru.NewCachingEmbedder(embedder, w.cli.CacheSize, w.cli.CacheTTL)
	}
	return embedder, nil
}

func (w *wiring) generator(ctx context.Context) (webrag.Generator, error) {
	generator := w.main.Generator
	if generator == nil {
		client, err := w.genaiClient(ctx)
		if err != nil {
			return nil, err
		}
		g := gemini.NewGenerator(client)
		g.Model = w.cli.Model
		g.Temperature = w.cli.Temperature
		generator = g
	}
	return wslog.NewLoggingGenerator(generator, w.logger), nil
}

func (w *wiring) tokens() webrag.TokenCounter {
	if w.main.Tokens != nil {
		return w.main.Tokens
	}
	tc, err := gemini.NewTokenCounter(tokenizerModel)
	if err != nil {
		w.logger.Warn("token counting disabled", "err", err)
		return nil
	}
	return tc
}

func (w *wiring) crawler() (webrag.Crawler, error) {
	if w.main.Crawler != nil {
		return wslog.NewLoggingCrawler(w.main.Crawler, w.logger), nil
	}
	cli := w.cli

	filter, err := webrag.NewURLFilter(cli.Include, cli.Exclude)
	if err != nil {
		fmt.Fprintf(w.stderr, "error: %s\n", webrag.ErrorMessage(err))
		return nil, err
	}

	httpFetcher := webraghttp.NewFetcher(webraghttp.WithTimeout(cli.FetchTimeout))
	w.closers = append(w.closers, httpFetcher.Close)

	c := &crawl.Crawler{
		Sitemaps:     wslog.NewLoggingSitemapService(webraghttp.NewSitemapService(nil), w.logger),
		HTTPFetcher:  wslog.NewLoggingFetcher(httpFetcher, "http", w.logger),
		Extractor:    trafilatura.NewExtractor(readability.NewExtractor()),
		Converter:    htmltomarkdown.NewConverter(),
		LinkSelector: goquery.NewLinkSelector(),
		RateLimiter:  crawl.NewDomainLimiter(cli.RequestInterval),
		Filter:       filter,
		Render:       crawl.RenderMode(cli.Render),
		Concurrency:  cli.Concurrency,
		Logger:       w.logger,
	}

	if c.Render != crawl.RenderHTTP {
		browser, err := rod.NewFetcher(rod.WithTimeout(cli.FetchTimeout))
		switch {
		case err != nil && c.Render == crawl.RenderBrowser:
			fmt.Fprintln(w.stderr, "Hint: Chrome or Chromium must be installed for --render=browser")
			return nil, err
		case err != nil:
			w.logger.Warn("browser unavailable, fetching static HTML only", "err", err)
		default:
			w.closers = append(w.closers, browser.Close)
			c.RodFetcher = wslog.NewLoggingFetcher(browser, "rod", w.logger)
		}
	}

	return wslog.NewLoggingCrawler(c, w.logger), nil
}
