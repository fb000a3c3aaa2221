package profile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout    = 45 * time.Second
	defaultMaxEntries = 256
)

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type cacheEntry struct {
	report  Report
	expires time.Time
}

// Options configures a Synthesizer. Zero values pick defaults; a zero
// CacheTTL disables caching.
type Options struct {
	Timeout    time.Duration
	CacheTTL   time.Duration
	MaxEntries int
	Clock      Clock
}

// Synthesizer produces Loan DNA reports. It never fails: any generation or
// validation error yields Fallback(). Valid reports are cached per input
// and identical concurrent requests share one generation.
type Synthesizer struct {
	gen  Generator
	opts Options

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func NewSynthesizer(gen Generator, opts Options) *Synthesizer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxEntries
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &Synthesizer{gen: gen, opts: opts, cache: make(map[string]cacheEntry)}
}

// Synthesize returns a validated report for in, or Fallback().
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) Report {
	key := in.fingerprint()
	if r, ok := s.cached(key); ok {
		return r
	}

	// The generation is shared by every caller with this key, so it must
	// outlive any single caller. opts.Timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(key, func() (any, error) {
		r, err := s.generate(shared, in)
		if err != nil {
			slog.Warn("dna synthesis failed, using fallback", "error", err)
			return Fallback(), nil
		}
		s.store(key, r)
		return r, nil
	})
	return v.(Report).clone()
}

func (s *Synthesizer) generate(ctx context.Context, in Input) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	raw, err := s.gen.Generate(ctx, BuildPrompt(in))
	if err != nil {
		return Report{}, err
	}
	return ParseReport(raw)
}

func (s *Synthesizer) cached(key string) (Report, bool) {
	if s.opts.CacheTTL <= 0 {
		return Report{}, false
	}
	s.mu.RLock()
	e, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok || !s.opts.Clock.Now().Before(e.expires) {
		return Report{}, false
	}
	return e.report.clone(), true
}

func (s *Synthesizer) store(key string, r Report) {
	if s.opts.CacheTTL <= 0 {
		return
	}
	now := s.opts.Clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cache) >= s.opts.MaxEntries {
		for k, e := range s.cache {
			if !now.Before(e.expires) {
				delete(s.cache, k)
			}
		}
		// Still full: drop an arbitrary entry.
		if len(s.cache) >= s.opts.MaxEntries {
			for k := range s.cache {
				delete(s.cache, k)
				break
			}
		}
	}
	s.cache[key] = cacheEntry{report: r.clone(), expires: now.Add(s.opts.CacheTTL)}
}

// Len returns the number of cached reports, expired ones included.
func (s *Synthesizer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
