package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const service = "auth-post"

// Axiom batching defaults. A post step emits a handful of records and exits
// within seconds, so the queue is small and the close-time drain does most of
// the shipping; the ingest timeout bounds how long exit can be delayed.
const (
	defaultAxiomBuffer  = 100
	defaultAxiomBatch   = 50
	defaultAxiomFlush   = 2 * time.Second
	defaultAxiomTimeout = 5 * time.Second
)

// Options defines logger initialization parameters.
type Options struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Console receives the structured log; defaults to stderr so stdout stays
	// reserved for runner workflow commands.
	Console io.Writer
	// Fields are attached to every record (run id, workflow, job).
	Fields map[string]string

	// Axiom
	SendToAxiom  bool
	AxiomAPIKey  string
	AxiomOrgID   string
	AxiomDataset string
	AxiomFlush   time.Duration
	// Zero values use the defaults above.
	AxiomBuffer  int
	AxiomBatch   int
	AxiomTimeout time.Duration
}

// axiomLimits holds the resolved batching parameters.
type axiomLimits struct {
	buffer  int
	batch   int
	flush   time.Duration
	timeout time.Duration
}

func (o Options) axiomLimits() axiomLimits {
	l := axiomLimits{buffer: o.AxiomBuffer, batch: o.AxiomBatch, flush: o.AxiomFlush, timeout: o.AxiomTimeout}
	if l.buffer <= 0 {
		l.buffer = defaultAxiomBuffer
	}
	if l.batch <= 0 {
		l.batch = defaultAxiomBatch
	}
	if l.batch > l.buffer {
		l.batch = l.buffer
	}
	if l.flush <= 0 {
		l.flush = defaultAxiomFlush
	}
	if l.timeout <= 0 {
		l.timeout = defaultAxiomTimeout
	}
	return l
}

var (
	global zerolog.Logger
	ax     *axiomClient
)

// Init sets up global logger: console, optional file rotation, optional Axiom forwarding.
func Init(opts Options) error {
	// Ensure log directory exists
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("create logs dir: %w", err)
		}
	}

	var writers []io.Writer

	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	if opts.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339})
	} else {
		writers = append(writers, console)
	}

	// Optional Axiom writer (info+)
	if opts.SendToAxiom && opts.AxiomAPIKey != "" {
		client, err := newAxiomClient(opts.AxiomAPIKey, opts.AxiomOrgID, opts.AxiomDataset, opts.axiomLimits())
		if err != nil {
			// log to stderr and continue without Axiom
			fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
		} else {
			ax = client
			writers = append(writers, &axiomWriter{client: client})
		}
	}

	out := io.MultiWriter(writers...)

	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	lc := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", service)
	for k, v := range opts.Fields {
		if v != "" {
			lc = lc.Str(k, v)
		}
	}
	global = lc.Logger()
	log.Logger = global
	zerolog.DefaultContextLogger = &global
	return nil
}

// Close flushes any buffered external loggers.
func Close() {
	if ax != nil {
		_ = ax.Close()
		ax = nil
	}
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }

// axiomWriter forwards zerolog JSON lines to Axiom (dropping debug level).
type axiomWriter struct{ client *axiomClient }

func (w *axiomWriter) Write(p []byte) (int, error) {
	var ev map[string]interface{}
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = map[string]interface{}{"message": string(p), "level": "info"}
	}
	if lvl, ok := ev["level"].(string); ok && lvl == "debug" {
		return len(p), nil
	}
	if _, ok := ev["service"]; !ok {
		ev["service"] = service
	}
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}
	w.client.Send(axiom.Event(ev))
	return len(p), nil
}

// Minimal Axiom batching client
type axiomClient struct {
	client  *axiom.Client
	dataset string
	limits  axiomLimits
	ch      chan axiom.Event
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func newAxiomClient(token, orgID, dataset string, limits axiomLimits) (*axiomClient, error) {
	if dataset == "" {
		dataset = "dev_auth_post"
	}
	opts := []axiom.Option{axiom.SetToken(token)}
	if orgID != "" {
		opts = append(opts, axiom.SetOrganizationID(orgID))
	}
	c, err := axiom.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	ac := &axiomClient{
		client:  c,
		dataset: dataset,
		limits:  limits,
		ch:      make(chan axiom.Event, limits.buffer),
		ctx:     ctx,
		cancel:  cancel,
	}
	ac.wg.Add(1)
	go ac.loop()
	return ac, nil
}

func (a *axiomClient) Send(ev axiom.Event) {
	select {
	case a.ch <- ev:
	default:
		// drop if buffer full
	}
}

func (a *axiomClient) loop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.limits.flush)
	defer ticker.Stop()
	batch := make([]axiom.Event, 0, a.limits.batch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.limits.timeout)
		_, _ = a.client.IngestEvents(ctx, a.dataset, batch)
		cancel()
		batch = batch[:0]
	}
	for {
		select {
		case <-a.ctx.Done():
			// the process is about to exit; take whatever is still queued
			for {
				select {
				case ev := <-a.ch:
					batch = append(batch, ev)
				default:
					flush()
					return
				}
			}
		case <-ticker.C:
			flush()
		case ev := <-a.ch:
			batch = append(batch, ev)
			if len(batch) >= a.limits.batch {
				flush()
			}
		}
	}
}

func (a *axiomClient) Close() error {
	a.cancel()
	a.wg.Wait()
	return nil
}
