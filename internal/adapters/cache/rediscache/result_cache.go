package rediscache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"facility-portal/internal/domain/formstats"
	"facility-portal/internal/platform/logger"
)

const keyPrefix = "formstats:v1:"

// backend es lo mínimo del servicio que usa la caché: validar antes de mirar
// Redis evita servir un resultado cacheado a una consulta que debería dar 4xx.
type backend interface {
	formstats.Aggregator
	Validate(q formstats.Query) (formstats.Query, error)
}

// ResultCache guarda resultados de agregación de rangos cerrados (to < hoy):
// esos días ya no reciben escrituras, así que el resultado no cambia.
type ResultCache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
	loc   *time.Location
	log   logger.Logger
	now   func() time.Time
}

type Options struct {
	TTL      time.Duration
	Location *time.Location // para decidir qué es "hoy"
	Logger   logger.Logger
}

func New(base backend, client *redis.Client, opts Options) *ResultCache {
	if base == nil {
		panic("rediscache.New: base aggregator is nil")
	}
	if opts.TTL < 0 {
		opts.TTL = 0
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &ResultCache{
		base:  base,
		redis: client,
		ttl:   opts.TTL,
		loc:   opts.Location,
		log:   opts.Logger,
		now:   time.Now,
	}
}

func (c *ResultCache) Discover(ctx context.Context, q formstats.Query) (formstats.Discovery, error) {
	return c.base.Discover(ctx, q)
}

func (c *ResultCache) Aggregate(ctx context.Context, q formstats.Query) (formstats.Result, error) {
	vq, err := c.base.Validate(q)
	if err != nil {
		return formstats.Result{}, err
	}
	if !c.cacheable(vq) {
		return c.base.Aggregate(ctx, q)
	}

	key := cacheKey(vq)
	if res, ok := c.load(ctx, key); ok {
		return res, nil
	}

	res, err := c.base.Aggregate(ctx, q)
	if err != nil {
		return formstats.Result{}, err
	}
	c.store(ctx, key, res)
	return res, nil
}

func (c *ResultCache) cacheable(q formstats.Query) bool {
	if c.redis == nil || c.ttl == 0 || q.Debug {
		return false
	}
	today := formstats.CivilDay(c.now(), c.loc)
	return q.To < today
}

func (c *ResultCache) load(ctx context.Context, key string) (formstats.Result, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("formstats cache read failed", map[string]any{"key": key, "error": err.Error()})
			_ = c.redis.Del(ctx, key).Err()
		}
		return formstats.Result{}, false
	}
	var res formstats.Result
	if err := json.Unmarshal(data, &res); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return formstats.Result{}, false
	}
	return res, true
}

func (c *ResultCache) store(ctx context.Context, key string, res formstats.Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("formstats cache write failed", map[string]any{"key": key, "error": err.Error()})
	}
}

// cacheKey usa la consulta ya normalizada: maxFiles cambia el resultado
// (truncado), concurrency y maxDays no.
func cacheKey(q formstats.Query) string {
	return keyPrefix + q.From + ":" + q.To + ":" + q.Code + ":" + strconv.Itoa(q.MaxFiles)
}
