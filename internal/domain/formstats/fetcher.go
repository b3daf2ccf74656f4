package formstats

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"facility-portal/internal/ports/blobstore"
)

// Object es el contenido crudo de una key leída con éxito.
type Object struct {
	Key  string
	Body []byte
}

type readOutcome int

const (
	readOK readOutcome = iota
	readMissing
	readFailed
	readTimedOut
	readCancelled
)

type fetchResult struct {
	key     string
	body    []byte
	outcome readOutcome
	err     error
}

type FetchStats struct {
	Requested int `json:"requested"`
	Workers   int `json:"workers"`
	Succeeded int `json:"succeeded"`
	Missing   int `json:"missing"`
	Failed    int `json:"failed"`
	TimedOut  int `json:"timed_out"`
	Cancelled int `json:"cancelled"`

	lastErr error
}

// Fetcher lee keys con un pool fijo de workers y un deadline por lectura.
// Una lectura lenta o fallida se descarta; nunca se reintenta.
type Fetcher struct {
	store       blobstore.Reader
	concurrency int
	timeout     time.Duration
}

func NewFetcher(store blobstore.Reader, concurrency int, timeout time.Duration) *Fetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &Fetcher{store: store, concurrency: concurrency, timeout: timeout}
}

// Fetch devuelve solo los objetos leídos a tiempo, sin orden garantizado.
func (f *Fetcher) Fetch(ctx context.Context, keys []string) ([]Object, FetchStats) {
	stats := FetchStats{Requested: len(keys)}
	if len(keys) == 0 {
		return []Object{}, stats
	}

	queue := make(chan string, len(keys))
	for _, k := range keys {
		queue <- k
	}
	close(queue)

	workers := min(f.concurrency, len(keys))
	stats.Workers = workers

	// slots de lectura en curso: una lectura abandonada por timeout conserva
	// su slot hasta que Get vuelve de verdad
	inflight := make(chan struct{}, workers)

	// cada worker solo escribe en su propio envío al canal: sin locks
	results := make(chan fetchResult, len(keys))
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for key := range queue {
				results <- f.read(ctx, key, inflight)
			}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	objects := make([]Object, 0, len(keys))
	for r := range results {
		switch r.outcome {
		case readOK:
			stats.Succeeded++
			objects = append(objects, Object{Key: r.key, Body: r.body})
		case readMissing:
			stats.Missing++
		case readTimedOut:
			stats.TimedOut++
		case readCancelled:
			stats.Cancelled++
		default:
			stats.Failed++
			stats.lastErr = r.err
		}
	}
	return objects, stats
}

// read no depende de que el store respete el contexto: si el deadline vence,
// se deja de esperar y la goroutine de lectura termina sola más tarde. El
// deadline corre también mientras se espera un slot libre en inflight.
func (f *Fetcher) read(ctx context.Context, key string, inflight chan struct{}) fetchResult {
	if ctx.Err() != nil {
		return fetchResult{key: key, outcome: readCancelled, err: ctx.Err()}
	}

	rctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		select {
		case inflight <- struct{}{}:
		case <-rctx.Done():
			return
		}
		defer func() { <-inflight }()
		if rctx.Err() != nil {
			return
		}
		body, err := f.store.Get(rctx, key)
		done <- classifyRead(ctx, key, body, err)
	}()

	select {
	case r := <-done:
		return r
	case <-rctx.Done():
		if ctx.Err() != nil {
			return fetchResult{key: key, outcome: readCancelled, err: ctx.Err()}
		}
		return fetchResult{key: key, outcome: readTimedOut, err: rctx.Err()}
	}
}

func classifyRead(parent context.Context, key string, body []byte, err error) fetchResult {
	switch {
	case err == nil && len(body) == 0:
		return fetchResult{key: key, outcome: readMissing}
	case err == nil:
		return fetchResult{key: key, body: body, outcome: readOK}
	case errors.Is(err, blobstore.ErrNotFound):
		return fetchResult{key: key, outcome: readMissing, err: err}
	case parent.Err() != nil:
		return fetchResult{key: key, outcome: readCancelled, err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return fetchResult{key: key, outcome: readTimedOut, err: err}
	default:
		return fetchResult{key: key, outcome: readFailed, err: err}
	}
}
