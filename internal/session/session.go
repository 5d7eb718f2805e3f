package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SeakMengs/CertEditor/internal/util"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("editor session not found")

// Session is one open editor with its own exporter and notification log.
type Session struct {
	ID       string
	Editor   *certedit.Editor
	Exporter *certedit.Exporter
	Notes    *certedit.NotificationLog
	OpenedAt time.Time

	mu       sync.Mutex
	lastUsed time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

type Options struct {
	Blobs      certedit.BlobStore
	Rasterizer certedit.Rasterizer
	Assembler  certedit.Assembler
	Exporter   certedit.ExporterOptions
	// Sessions idle for longer are closed by Sweep. Zero keeps them forever.
	IdleTTL time.Duration
	Logger  *zap.SugaredLogger
	Now     func() time.Time
	// Called with the number of open sessions after every open or close.
	OnChange func(open int)
}

type Registry struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Exporter.Now == nil {
		opts.Exporter.Now = opts.Now
	}
	if opts.Exporter.Logger == nil {
		opts.Exporter.Logger = opts.Logger
	}

	return &Registry{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Open creates an editor for the template seeded from the record.
func (r *Registry) Open(t *certedit.Template, rec certedit.Record) (*Session, error) {
	id, err := util.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := r.opts.Now()
	notes := &certedit.NotificationLog{}
	s := &Session{
		ID: id,
		Editor: certedit.Open(t, rec, certedit.EditorOptions{
			Blobs:  r.opts.Blobs,
			Logger: r.opts.Logger.With("session", id),
			Now:    r.opts.Now,
		}),
		Exporter: certedit.NewExporter(
			r.opts.Rasterizer,
			r.opts.Assembler,
			certedit.MultiNotifier(notes, certedit.LoggerNotifier{Logger: r.opts.Logger.With("session", id)}),
			r.opts.Exporter,
		),
		Notes:    notes,
		OpenedAt: now,
		lastUsed: now,
	}

	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.opts.Logger.Infof("Opened %s editor %s", t.Type, id)
	r.changed(n)
	return s, nil
}

// Get returns an open session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touch(r.opts.Now())
	return s, nil
}

// Close closes the editor, releasing its signature image, and forgets the session.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.Editor.Close(ctx)
	r.opts.Logger.Infof("Closed editor %s", id)
	r.changed(n)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than IdleTTL and returns how many.
// A session whose export is still running is left alone.
func (r *Registry) Sweep(ctx context.Context) int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}

	now := r.opts.Now()
	var expired []string

	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.LastUsed()) > r.opts.IdleTTL && !s.Exporter.Busy() {
			expired = append(expired, id)
		}
	}
	r.mu.Unlock()

	closed := 0
	for _, id := range expired {
		if err := r.Close(ctx, id); err == nil {
			closed++
		}
	}
	if closed > 0 {
		r.opts.Logger.Infof("Closed %d idle editors", closed)
	}
	return closed
}

// Run sweeps idle sessions every interval until ctx is done, then closes
// every remaining session.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.CloseAll(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Close(ctx, id)
	}
}

func (r *Registry) changed(n int) {
	if r.opts.OnChange != nil {
		r.opts.OnChange(n)
	}
}
