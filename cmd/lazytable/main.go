package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazytable/internal/config"
	"github.com/rebeliceyang/lazytable/internal/filter"
	"github.com/rebeliceyang/lazytable/internal/logging"
	"github.com/rebeliceyang/lazytable/internal/records"
	"github.com/rebeliceyang/lazytable/internal/urlstate"
	"github.com/rebeliceyang/lazytable/internal/views"
)

// CommandHandler runs the parsed command if it owns it
type CommandHandler func(command string) bool

var (
	app = kingpin.New("lazytable",
		"Filter, sort and page a table from URL state, and manage saved views.")

	configPath = app.Flag("config", "The configuration file.").Short('c').
			Envar("LAZYTABLE_CONFIG").String()

	verbose = app.Flag("verbose", "Enable debug logging.").Short('v').Bool()

	commandHandlers []CommandHandler
)

// env is everything a command needs, built from the configuration
type env struct {
	cfg       *config.Config
	log       *logrus.Logger
	source    records.Source
	store     *records.Store
	views     *views.Manager
	evaluator *filter.Evaluator
	closers   []func()
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func newEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	urlstate.SetLogger(logger.WithField("component", "urlstate"))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:       cfg,
		log:       logger,
		evaluator: &filter.Evaluator{Now: time.Now, Location: loc},
	}

	if err := e.openSource(ctx); err != nil {
		e.Close()
		return nil, err
	}
	if err := e.openViews(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) openSource(ctx context.Context) error {
	switch e.cfg.Records.Source {
	case "postgres":
		pg := e.cfg.Records.Postgres
		src, err := records.NewPGSource(ctx, records.PGConfig{
			Host:     pg.Host,
			Port:     pg.Port,
			User:     pg.User,
			Password: pg.Password,
			Database: pg.Database,
			SSLMode:  pg.SSLMode,
			Table:    pg.Table,
		})
		if err != nil {
			return err
		}
		e.source = src
		e.closers = append(e.closers, src.Close)
	default:
		e.store = records.NewStore(records.Seed(), e.log.WithField("component", "records"))
		e.source = e.store
	}
	return nil
}

func (e *env) openViews(ctx context.Context) error {
	path, err := e.cfg.ViewsPath()
	if err != nil {
		return err
	}

	var backend views.Backend
	switch e.cfg.Views.Backend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create views directory: %w", err)
		}
		store, err := views.NewSQLiteStore(path)
		if err != nil {
			return err
		}
		store.SetLogger(e.log.WithField("component", "views"))
		e.closers = append(e.closers, func() { _ = store.Close() })
		backend = store
	default:
		store, err := views.NewYAMLStoreWithLogger(path, e.log.WithField("component", "views"))
		if err != nil {
			return err
		}
		backend = store
	}

	e.views = views.NewManager(e.cfg.Table.Key, backend, e.log.WithField("component", "views"))
	e.closers = append(e.closers, e.views.Close)
	return e.views.Load(ctx)
}

func (e *env) suggester() views.Suggester {
	return views.NewSharedSuggester(views.HeuristicSuggester{})
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate)

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	for _, handler := range commandHandlers {
		if handler(command) {
			break
		}
	}
}
