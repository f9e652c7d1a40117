package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/pipeline"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Render  *Renderer
	Store   webrag.VectorStore
	Session *pipeline.Session
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  kong.ConfigFlag `help:"YAML configuration file"`
	Verbose bool            `short:"v" help:"Log progress to stderr"`
	DB      string          `env:"WEBRAG_DB" help:"Database path (default ~/.webrag/webrag.db)"`

	Embedder        string        `enum:"gemini,ollama" default:"gemini" env:"WEBRAG_EMBEDDER" help:"Embedding backend (gemini, ollama)"`
	EmbeddingModel  string        `default:"text-embedding-004" help:"Gemini embedding model"`
	OllamaURL       string        `env:"WEBRAG_OLLAMA_URL" default:"http://localhost:11434" help:"Ollama server URL"`
	OllamaModel     string        `default:"all-minilm" help:"Ollama embedding model"`
	Dimension       int           `default:"384" help:"Embedding dimension"`
	CacheSize       int           `default:"4096" help:"Embedding cache entries (0 disables the cache)"`
	CacheTTL        time.Duration `name:"cache-ttl" default:"1h" help:"Embedding cache entry lifetime"`
	Model           string        `default:"gemini-2.5-flash" env:"WEBRAG_MODEL" help:"Gemini generation model"`
	Temperature     float32       `default:"0.2" help:"Generation temperature"`
	ChunkSize       int           `default:"1000" help:"Maximum chunk size in characters"`
	ChunkOverlap    int           `default:"200" help:"Characters shared by consecutive chunks"`
	TopK            int           `name:"top-k" default:"5" help:"Chunks retrieved per question"`
	MinScore        float32       `default:"0" help:"Similarity floor for grounding chunks (0 disables)"`
	MaxPages        int           `default:"20" help:"Maximum pages crawled per site"`
	Concurrency     int           `short:"c" default:"3" help:"Concurrent page fetches"`
	Render          string        `enum:"auto,http,browser" default:"auto" help:"Page rendering (auto, http, browser)"`
	FetchTimeout    time.Duration `default:"10s" help:"Per-page fetch timeout"`
	RequestInterval time.Duration `default:"1s" help:"Minimum delay between requests to one host"`
	Include         []string      `help:"Only crawl URLs matching these regular expressions"`
	Exclude         []string      `default:"/privacy-policy,/terms-of-service,/login,/signup" help:"Skip URLs matching these regular expressions"`

	Init   InitCmd   `cmd:"" help:"Crawl and index a website, replacing the current index"`
	Ask    AskCmd    `cmd:"" help:"Ask a question about the indexed website"`
	Chat   ChatCmd   `cmd:"" help:"Ask questions interactively"`
	Status StatusCmd `cmd:"" help:"Show the indexed website"`
	Reset  ResetCmd  `cmd:"" help:"Drop the index"`
}

// InitCmd is the "init" subcommand.
type InitCmd struct {
	URL string `arg:"" help:"Website URL"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Question []string `arg:"" help:"Question to ask"`
}

// ChatCmd is the "chat" subcommand.
type ChatCmd struct {
	URL string `arg:"" optional:"" help:"Website URL to index before chatting"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}

// ResetCmd is the "reset" subcommand.
type ResetCmd struct {
	Force bool `help:"Confirm reset"`
}
