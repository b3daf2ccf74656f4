package formstats

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"facility-portal/internal/ports/blobstore"
)

// KeyShape reconoce uno de los dos layouts de keys que conviven en el store.
type KeyShape struct {
	Name string
	re   *regexp.Regexp
}

var (
	// DailyShape: <code>/<YYYY-MM-DD>.ndjson, un evento JSON por línea.
	DailyShape = KeyShape{Name: "daily", re: regexp.MustCompile(`^([^/]+)/(\d{4}-\d{2}-\d{2})\.ndjson$`)}
	// EventShape: <code>/<YYYY-MM-DD>/<epoch-ms>-<rand>.json, un evento por objeto.
	EventShape = KeyShape{Name: "event", re: regexp.MustCompile(`^([^/]+)/(\d{4}-\d{2}-\d{2})/\d{13}-[a-zA-Z0-9]{6}\.json$`)}
)

// Match devuelve el code y la fecha de partición embebidos en la key.
func (s KeyShape) Match(key string) (code, day string, ok bool) {
	m := s.re.FindStringSubmatch(key)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ShapeOf clasifica una key; ok=false si no coincide con ningún layout.
func ShapeOf(key string) (shape KeyShape, code, day string, ok bool) {
	for _, s := range []KeyShape{DailyShape, EventShape} {
		if code, day, ok := s.Match(key); ok {
			return s, code, day, true
		}
	}
	return KeyShape{}, "", "", false
}

// Range es el filtro de partición que recibe el catálogo.
type Range struct {
	From string
	To   string
	Code string
}

type Listing struct {
	DailyKeys      []string
	EventKeys      []string
	SupersededKeys []string

	Listed    int  // keys vistas en el listado (incluye las ignoradas)
	Pages     int  // páginas pedidas al store
	Truncated bool // se alcanzó un tope antes de agotar el listado
}

// Catalog descubre las keys relevantes para un rango.
type Catalog struct {
	store blobstore.Reader

	// MaxKeys limita las keys aceptadas (dentro del rango); MaxScanned limita
	// las keys recorridas en total, para rangos sin code sobre stores enormes.
	MaxKeys    int
	MaxScanned int
}

func NewCatalog(store blobstore.Reader, maxKeys int) *Catalog {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxFiles
	}
	return &Catalog{
		store:      store,
		MaxKeys:    maxKeys,
		MaxScanned: maxKeys * 20,
	}
}

type partition struct {
	code string
	day  string
}

func (c *Catalog) Discover(ctx context.Context, rg Range) (Listing, error) {
	prefix := ""
	if rg.Code != "" {
		prefix = rg.Code + "/"
	}

	out := Listing{
		DailyKeys:      []string{},
		EventKeys:      []string{},
		SupersededKeys: []string{},
	}
	accepted := 0

	p := blobstore.NewPager(c.store, prefix)
scan:
	for p.More() {
		keys, err := p.NextPage(ctx)
		if err != nil {
			return Listing{}, fmt.Errorf("list %q: %w", prefix, err)
		}
		for i, key := range keys {
			if accepted >= c.MaxKeys || (c.MaxScanned > 0 && out.Listed >= c.MaxScanned) {
				out.Truncated = i < len(keys) || p.More()
				break scan
			}
			out.Listed++

			shape, _, day, ok := ShapeOf(key)
			if !ok || day < rg.From || day > rg.To {
				continue
			}
			accepted++
			if shape.Name == DailyShape.Name {
				out.DailyKeys = append(out.DailyKeys, key)
			} else {
				out.EventKeys = append(out.EventKeys, key)
			}
		}
	}
	out.Pages = p.Pages()

	// Si existe el NDJSON diario para (code, día), ese archivo es el registro
	// consolidado: los eventos sueltos del mismo día no se cuentan dos veces.
	consolidated := make(map[partition]bool, len(out.DailyKeys))
	for _, k := range out.DailyKeys {
		code, day, _ := DailyShape.Match(k)
		consolidated[partition{code, day}] = true
	}
	kept := out.EventKeys[:0]
	for _, k := range out.EventKeys {
		code, day, _ := EventShape.Match(k)
		if consolidated[partition{code, day}] {
			out.SupersededKeys = append(out.SupersededKeys, k)
			continue
		}
		kept = append(kept, k)
	}
	out.EventKeys = kept

	sort.Strings(out.DailyKeys)
	sort.Strings(out.EventKeys)
	sort.Strings(out.SupersededKeys)
	return out, nil
}
