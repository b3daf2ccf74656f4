package formstats

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"facility-portal/internal/platform/logger"
	"facility-portal/internal/ports/blobstore"
)

const (
	DefaultConcurrency    = 8
	MaxConcurrency        = 32
	DefaultReadTimeout    = 8 * time.Second
	DefaultRequestTimeout = 25 * time.Second
	DefaultMaxDays        = 31
	MaxDaysCap            = 92
	DefaultMaxFiles       = 5000
	MaxFilesCap           = 20000

	// Las particiones llevan la fecha UTC de escritura; el día civil puede
	// caer un día antes o después, así que el catálogo mira un día extra a cada lado.
	partitionSlackDays = 1

	tracerName = "facility-portal/formstats"
)

type Options struct {
	Location       *time.Location
	Concurrency    int
	ReadTimeout    time.Duration
	RequestTimeout time.Duration // 0 => sin presupuesto global
	MaxDays        int
	MaxFiles       int

	Logger  logger.Logger
	Metrics *Metrics
	Tracer  trace.Tracer
}

// Query: From/To inclusive (YYYY-MM-DD). Los enteros en cero toman el default
// del servicio y nunca superan sus topes.
type Query struct {
	From string
	To   string
	Code string

	Debug       bool
	Concurrency int
	MaxDays     int
	MaxFiles    int
}

type Result struct {
	OK     bool       `json:"ok"`
	From   string     `json:"from"`
	To     string     `json:"to"`
	Code   string     `json:"code,omitempty"`
	Daily  []Day      `json:"daily"`
	Counts []CountRow `json:"counts"`
	Debug  *DebugInfo `json:"debug,omitempty"`
}

type Timings struct {
	List      int64 `json:"list"`
	Fetch     int64 `json:"fetch"`
	Normalize int64 `json:"normalize"`
	Match     int64 `json:"match"`
	Build     int64 `json:"build"`
	Total     int64 `json:"total"`
}

type DebugInfo struct {
	PartitionFrom  string         `json:"partition_from"`
	PartitionTo    string         `json:"partition_to"`
	DailyKeys      []string       `json:"ndjsonKeys"`
	EventKeys      []string       `json:"jsonEventKeys"`
	SupersededKeys []string       `json:"supersededKeys"`
	KeysListed     int            `json:"keys_listed"`
	Truncated      bool           `json:"truncated"`
	Fetch          FetchStats     `json:"fetch"`
	Records        NormalizeStats `json:"records"`
	Occurrences    int            `json:"occurrences"`
	TimingsMS      Timings        `json:"timings_ms"`
}

// Discovery es la vista de diagnóstico: solo keys y tiempo de listado.
type Discovery struct {
	OK             bool     `json:"ok"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	Code           string   `json:"code"`
	PartitionFrom  string   `json:"partition_from"`
	PartitionTo    string   `json:"partition_to"`
	DailyKeys      []string `json:"ndjsonKeys"`
	EventKeys      []string `json:"jsonEventKeys"`
	SupersededKeys []string `json:"supersededKeys"`
	KeysListed     int      `json:"keys_listed"`
	Pages          int      `json:"pages"`
	Truncated      bool     `json:"truncated"`
	TimingsMS      Timings  `json:"timings_ms"`
}

// Service es el punto de entrada de lectura. Sin estado entre consultas:
// seguro para uso concurrente e idempotente sobre datos inmutables.
type Service struct {
	store blobstore.Reader
	opts  Options
	now   func() time.Time
}

func NewService(store blobstore.Reader, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	opts.Concurrency = min(opts.Concurrency, MaxConcurrency)
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = DefaultMaxDays
	}
	opts.MaxDays = min(opts.MaxDays, MaxDaysCap)
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	opts.MaxFiles = min(opts.MaxFiles, MaxFilesCap)
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	return &Service{
		store: store,
		opts:  opts,
		now:   time.Now,
	}
}

func (s *Service) Location() *time.Location { return s.opts.Location }

// DefaultRange: últimos 30 días hasta hoy en la zona de referencia.
func (s *Service) DefaultRange() (from, to string) {
	return DefaultRange(s.now(), s.opts.Location)
}

// Validate rechaza la consulta antes de tocar el store y completa defaults.
func (s *Service) Validate(q Query) (Query, error) {
	q.Code = strings.TrimSpace(q.Code)
	if strings.Contains(q.Code, "/") {
		return Query{}, &ValidationError{Kind: ErrKindInvalidCode, Message: "code must not contain '/'"}
	}
	if _, ok := parseDate(q.From); !ok {
		return Query{}, &ValidationError{Kind: ErrKindInvalidRange, Message: "from must be YYYY-MM-DD"}
	}
	if _, ok := parseDate(q.To); !ok {
		return Query{}, &ValidationError{Kind: ErrKindInvalidRange, Message: "to must be YYYY-MM-DD"}
	}
	if q.From > q.To {
		return Query{}, &ValidationError{Kind: ErrKindInvalidRange, Message: "from must not be after to"}
	}

	q.Concurrency = clampDefault(q.Concurrency, s.opts.Concurrency, MaxConcurrency)
	q.MaxDays = clampDefault(q.MaxDays, s.opts.MaxDays, MaxDaysCap)
	q.MaxFiles = clampDefault(q.MaxFiles, s.opts.MaxFiles, MaxFilesCap)

	if span := daysBetween(q.From, q.To) + 1; span > q.MaxDays {
		return Query{}, &ValidationError{
			Kind:    ErrKindRangeTooLarge,
			Message: "range too large (> " + strconv.Itoa(q.MaxDays) + " days)",
		}
	}
	return q, nil
}

func (s *Service) partitionRange(q Query) Range {
	return Range{
		From: addDays(q.From, -partitionSlackDays),
		To:   addDays(q.To, partitionSlackDays),
		Code: q.Code,
	}
}

// Discover lista y clasifica keys sin leer contenido.
func (s *Service) Discover(ctx context.Context, q Query) (Discovery, error) {
	q, err := s.Validate(q)
	if err != nil {
		return Discovery{}, err
	}
	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	start := time.Now()
	rg := s.partitionRange(q)
	listing, err := NewCatalog(s.store, q.MaxFiles).Discover(ctx, rg)
	if err != nil {
		return Discovery{}, s.storeErr(ctx, "list", err)
	}
	elapsed := time.Since(start)
	s.opts.Metrics.observeStage("list", elapsed)

	return Discovery{
		OK:             true,
		From:           q.From,
		To:             q.To,
		Code:           q.Code,
		PartitionFrom:  rg.From,
		PartitionTo:    rg.To,
		DailyKeys:      listing.DailyKeys,
		EventKeys:      listing.EventKeys,
		SupersededKeys: listing.SupersededKeys,
		KeysListed:     listing.Listed,
		Pages:          listing.Pages,
		Truncated:      listing.Truncated,
		TimingsMS:      Timings{List: elapsed.Milliseconds(), Total: elapsed.Milliseconds()},
	}, nil
}

// Aggregate ejecuta catálogo → fetch → normalización → matching → timeline.
func (s *Service) Aggregate(ctx context.Context, q Query) (Result, error) {
	started := time.Now()

	q, err := s.Validate(q)
	if err != nil {
		s.opts.Metrics.observeResult("invalid", time.Since(started))
		return Result{}, err
	}

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	ctx, span := s.opts.Tracer.Start(ctx, "formstats.Aggregate", trace.WithAttributes(
		attribute.String("formstats.from", q.From),
		attribute.String("formstats.to", q.To),
		attribute.String("formstats.code", q.Code),
	))
	defer span.End()

	res, err := s.aggregate(ctx, q, started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.opts.Metrics.observeResult(outcomeOf(err), time.Since(started))
		s.opts.Logger.Error("formstats aggregate failed", map[string]any{
			"from": q.From, "to": q.To, "code": q.Code, "error": err.Error(),
		})
		return Result{}, err
	}
	s.opts.Metrics.observeResult("ok", time.Since(started))
	return res, nil
}

func (s *Service) aggregate(ctx context.Context, q Query, started time.Time) (Result, error) {
	var tm Timings
	rg := s.partitionRange(q)

	// 1) catálogo
	stageCtx, stage := s.opts.Tracer.Start(ctx, "formstats.list")
	t0 := time.Now()
	listing, err := NewCatalog(s.store, q.MaxFiles).Discover(stageCtx, rg)
	tm.List = s.endStage(stage, "list", t0)
	if err != nil {
		return Result{}, s.storeErr(ctx, "list", err)
	}
	if listing.Truncated {
		s.opts.Metrics.observeTruncated()
		s.opts.Logger.Warn("formstats listing truncated", map[string]any{
			"from": q.From, "to": q.To, "code": q.Code, "max_files": q.MaxFiles, "listed": listing.Listed,
		})
	}

	// 2) fetch acotado
	keys := make([]string, 0, len(listing.DailyKeys)+len(listing.EventKeys))
	keys = append(keys, listing.DailyKeys...)
	keys = append(keys, listing.EventKeys...)

	stageCtx, stage = s.opts.Tracer.Start(ctx, "formstats.fetch", trace.WithAttributes(
		attribute.Int("formstats.keys", len(keys)),
		attribute.Int("formstats.concurrency", q.Concurrency),
	))
	t0 = time.Now()
	objects, fst := NewFetcher(s.store, q.Concurrency, s.opts.ReadTimeout).Fetch(stageCtx, keys)
	tm.Fetch = s.endStage(stage, "fetch", t0)
	s.opts.Metrics.observeFetch(fst)

	if err := budgetErr(ctx); err != nil {
		return Result{}, err
	}
	if fst.Requested > 0 && fst.Failed == fst.Requested {
		return Result{}, &StoreError{Op: "get", Err: fst.lastErr}
	}

	// 3) normalización (orden por key: estadísticas y empates reproducibles)
	_, stage = s.opts.Tracer.Start(ctx, "formstats.normalize")
	t0 = time.Now()
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	norm := Normalizer{Location: s.opts.Location, From: q.From, To: q.To}
	var nst NormalizeStats
	events := make([]Event, 0)
	for _, obj := range objects {
		evs, st := norm.Normalize(obj)
		nst.add(st)
		events = append(events, evs...)
	}
	tm.Normalize = s.endStage(stage, "normalize", t0)
	s.opts.Metrics.observeRecords(nst)

	// 4) matching
	_, stage = s.opts.Tracer.Start(ctx, "formstats.match")
	t0 = time.Now()
	occurrences := Match(events, s.opts.Location)
	tm.Match = s.endStage(stage, "match", t0)

	// 5) timeline
	_, stage = s.opts.Tracer.Start(ctx, "formstats.build")
	t0 = time.Now()
	daily := BuildTimeline(EnumerateDays(q.From, q.To), occurrences)
	tm.Build = s.endStage(stage, "build", t0)
	tm.Total = time.Since(started).Milliseconds()

	res := Result{
		OK:     true,
		From:   q.From,
		To:     q.To,
		Code:   q.Code,
		Daily:  daily,
		Counts: Counts(daily),
	}

	s.opts.Logger.Debug("formstats aggregate done", map[string]any{
		"from": q.From, "to": q.To, "code": q.Code,
		"keys": len(keys), "fetched": fst.Succeeded, "events": len(events),
		"occurrences": len(occurrences), "total_ms": tm.Total,
	})

	if q.Debug {
		res.Debug = &DebugInfo{
			PartitionFrom:  rg.From,
			PartitionTo:    rg.To,
			DailyKeys:      listing.DailyKeys,
			EventKeys:      listing.EventKeys,
			SupersededKeys: listing.SupersededKeys,
			KeysListed:     listing.Listed,
			Truncated:      listing.Truncated,
			Fetch:          fst,
			Records:        nst,
			Occurrences:    len(occurrences),
			TimingsMS:      tm,
		}
	}
	return res, nil
}

func (s *Service) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.RequestTimeout)
}

func (s *Service) endStage(span trace.Span, stage string, start time.Time) int64 {
	d := time.Since(start)
	span.End()
	s.opts.Metrics.observeStage(stage, d)
	return d.Milliseconds()
}

// storeErr distingue presupuesto agotado de store caído.
func (s *Service) storeErr(ctx context.Context, op string, err error) error {
	if berr := budgetErr(ctx); berr != nil {
		return berr
	}
	return &StoreError{Op: op, Err: err}
}

func budgetErr(ctx context.Context) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return nil
}

func outcomeOf(err error) string {
	var verr *ValidationError
	var serr *StoreError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &serr):
		return "store_error"
	default:
		return "error"
	}
}

func clampDefault(v, def, limit int) int {
	if v <= 0 {
		v = def
	}
	return min(v, limit)
}
