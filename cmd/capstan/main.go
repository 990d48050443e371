// Package main is the entry point for the Capstan runtime.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/anthropics/capstan/internal/config"
	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/edit"
	"github.com/anthropics/capstan/internal/ipc"
	"github.com/anthropics/capstan/internal/lint"
	"github.com/anthropics/capstan/internal/model"
	"github.com/anthropics/capstan/internal/notes"
	"github.com/anthropics/capstan/internal/registry"
	"github.com/anthropics/capstan/internal/scan"
	"github.com/anthropics/capstan/internal/session"
	"github.com/anthropics/capstan/internal/store"
	"github.com/anthropics/capstan/internal/tools"
	"github.com/anthropics/capstan/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to configuration JSON file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("capstan %s (commit=%s, built=%s)\n", version, commit, date)
		os.Exit(0)
	}

	// Resolve config path: --config flag > CAPSTAN_CONFIG env > auto-discover next to exe.
	path := *configPath
	if path == "" {
		path = os.Getenv("CAPSTAN_CONFIG")
	}
	if path == "" {
		path = discoverConfig()
	}
	if path == "" {
		fatal("no config found. Place config.json next to the exe, use --config <path>, or set CAPSTAN_CONFIG.")
	}

	cfg, err := config.Load(path)
	if err != nil {
		fatal(fmt.Sprintf("load config: %v", err))
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Wire linter providers.
	linters := lint.NewRegistry()
	for name, lc := range cfg.Linters {
		if err := linters.Register(lint.ProviderSpec{
			Name:       name,
			Command:    lc.Command,
			Args:       lc.Args,
			Extensions: lc.Extensions,
		}); err != nil {
			log.Fatalf("register linter %s: %v", name, err)
		}
	}
	lintRunner := lint.NewRunner(linters, time.Duration(cfg.CommandTimeoutSec)*time.Second)

	// Wire notes storage.
	noteStore, err := notes.NewStore(cfg.StateDir)
	if err != nil {
		log.Fatalf("open state dir: %v", err)
	}

	// Wire web search when an endpoint is configured.
	var webSvc *web.Service
	if cfg.Web.Endpoint != "" {
		provider := web.NewHTTPProvider(cfg.Web.Endpoint, os.Getenv(cfg.Web.APIKeyEnv))
		summarizer := &web.ExcerptSummarizer{MaxChars: cfg.Web.SummaryChars}
		webSvc, err = web.NewService(provider, summarizer, cfg.Web.CacheSize)
		if err != nil {
			log.Fatalf("create web service: %v", err)
		}
	}

	client := model.NewOpenAIClient(cfg.Model.BaseURL, os.Getenv(cfg.Model.APIKeyEnv), cfg.Model.Model)

	engine := edit.NewEngine(cfg.Workspace)
	scanner := scan.NewScanner(cfg.Workspace)
	procRepo := &store.ProcRepo{}

	buildCaps := func(s *session.Session) (*registry.Registry, error) {
		reg := registry.New()
		handlers := []registry.Handler{
			&tools.ReadFile{Root: cfg.Workspace},
			&tools.ListFiles{Root: cfg.Workspace},
			&tools.SearchWorkspace{Scanner: scanner},
			&tools.EditFile{Engine: engine},
			&tools.DeleteFile{Root: cfg.Workspace},
			&tools.RunCommand{
				Root:      cfg.Workspace,
				Timeout:   time.Duration(cfg.CommandTimeoutSec) * time.Second,
				SessionID: s.ID(),
				Procs:     procRepo,
				DB:        db,
			},
			&tools.LintFile{Root: cfg.Workspace, Runner: lintRunner},
			&tools.MemoWrite{Store: noteStore},
			&tools.MemoList{Store: noteStore},
			&tools.TodoWrite{Store: noteStore},
			&tools.TodoList{Store: noteStore},
			&tools.SetMode{Session: s},
		}
		if webSvc != nil {
			handlers = append(handlers, &tools.WebSearch{Service: webSvc, Limit: cfg.Web.ResultLimit})
		}
		for _, h := range handlers {
			if err := reg.Register(h); err != nil {
				return nil, err
			}
		}
		return reg, nil
	}

	sessions := session.NewManager(db, client, buildCaps, domain.Mode(cfg.DefaultMode), cfg.MaxIterations)

	handler := &ipc.Handler{
		Sessions:       sessions,
		DB:             db,
		AuditRepo:      &store.AuditRepo{},
		InvocationRepo: &store.InvocationRepo{},
		UsageRepo:      &store.UsageRepo{},
		ProcRepo:       procRepo,
	}

	srv := ipc.NewServer(handler, cfg.ListenAddr)

	// Graceful shutdown on interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	url := ipc.FormatListenURL(cfg.ListenAddr)
	log.Printf("capstan listening on %s", url)

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		fatal(fmt.Sprintf("server error: %v", err))
	}
}

// discoverConfig looks for config.json next to the executable, then in the cwd.
func discoverConfig() string {
	// Next to executable.
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "config.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	// Current working directory.
	if _, err := os.Stat("config.json"); err == nil {
		return "config.json"
	}
	return ""
}

// fatal prints an error and, on Windows, waits for a keypress so the user can
// read the message when the exe is launched by double-click.
func fatal(msg string) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	if runtime.GOOS == "windows" {
		fmt.Fprintln(os.Stderr, "\nPress Enter to exit...")
		bufio.NewReader(os.Stdin).ReadBytes('\n')
	}
	os.Exit(1)
}
