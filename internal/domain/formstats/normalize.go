package formstats

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Cadenas de prioridad por campo lógico. Los productores cambiaron de nombres
// con el tiempo; el primer campo resoluble gana.
var (
	timestampFields   = []string{"ts_server", "server_ts", "ts"}
	entityIDFields    = []string{"id", "code"}
	equipmentFlags    = []string{"isEquipment", "is_equipment"}
	entityTypeFields  = []string{"entityType", "entity_type"}
	descriptionFields = []string{"description", "Description", "desc"}
	eventNameFields   = []string{"type", "event"}
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

type NormalizeStats struct {
	Lines      int `json:"lines_read"`
	Malformed  int `json:"malformed"`
	Dropped    int `json:"dropped"` // sin timestamp o sin id de entidad
	OutOfRange int `json:"out_of_range"`
	Kept       int `json:"kept"`
}

func (s *NormalizeStats) add(o NormalizeStats) {
	s.Lines += o.Lines
	s.Malformed += o.Malformed
	s.Dropped += o.Dropped
	s.OutOfRange += o.OutOfRange
	s.Kept += o.Kept
}

// Normalizer convierte contenido crudo en eventos canónicos para [From, To]
// (días civiles en Location).
type Normalizer struct {
	Location *time.Location
	From     string
	To       string
}

// Normalize detecta el layout por la key; una key desconocida no produce eventos.
func (n Normalizer) Normalize(obj Object) ([]Event, NormalizeStats) {
	shape, code, _, ok := ShapeOf(obj.Key)
	if !ok {
		return nil, NormalizeStats{}
	}
	if shape.Name == DailyShape.Name {
		return n.Daily(obj.Key, code, obj.Body)
	}
	return n.Single(obj.Key, code, obj.Body)
}

// Daily procesa un NDJSON: cada línea es independiente y una línea rota no
// invalida el resto del archivo.
func (n Normalizer) Daily(key, code string, body []byte) ([]Event, NormalizeStats) {
	var st NormalizeStats
	out := []Event{}
	for i, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		st.Lines++
		if ev, ok := n.decode(line, code, Source{Key: key, Line: i + 1}, &st); ok {
			out = append(out, ev)
		}
	}
	return out, st
}

// Single procesa un objeto con un único evento JSON.
func (n Normalizer) Single(key, code string, body []byte) ([]Event, NormalizeStats) {
	st := NormalizeStats{Lines: 1}
	ev, ok := n.decode(bytes.TrimSpace(body), code, Source{Key: key}, &st)
	if !ok {
		return []Event{}, st
	}
	return []Event{ev}, st
}

func (n Normalizer) decode(raw []byte, code string, src Source, st *NormalizeStats) (Event, bool) {
	if !gjson.ValidBytes(raw) {
		st.Malformed++
		return Event{}, false
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		st.Malformed++
		return Event{}, false
	}

	at, ok := resolveInstant(doc)
	if !ok {
		st.Dropped++
		return Event{}, false
	}
	day := CivilDay(at, n.Location)
	if day < n.From || day > n.To {
		st.OutOfRange++
		return Event{}, false
	}

	id := firstString(doc, entityIDFields)
	if id == "" {
		id = code
	}
	if id == "" {
		st.Dropped++
		return Event{}, false
	}

	name := firstString(doc, eventNameFields)
	st.Kept++
	return Event{
		Entity:      EntityKey{Type: resolveEntityType(doc), ID: id},
		Kind:        resolveKind(name),
		Name:        name,
		OccurredAt:  at,
		Day:         day,
		Description: firstString(doc, descriptionFields),
		Source:      src,
	}, true
}

func resolveInstant(doc gjson.Result) (time.Time, bool) {
	for _, f := range timestampFields {
		if t, ok := parseInstant(doc.Get(f)); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseInstant acepta epoch en milisegundos (número o string de dígitos) o ISO-8601.
// Strings sin zona se interpretan como UTC.
func parseInstant(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.Number:
		return fromEpochMillis(v.Int())
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return time.Time{}, false
		}
		if isDigits(s) {
			ms, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return time.Time{}, false
			}
			return fromEpochMillis(ms)
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func fromEpochMillis(ms int64) (time.Time, bool) {
	if ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func resolveEntityType(doc gjson.Result) EntityType {
	for _, f := range equipmentFlags {
		if v := doc.Get(f); v.Exists() {
			if truthy(v) {
				return EntityEquipment
			}
			return EntitySpace
		}
	}
	switch strings.ToLower(firstString(doc, entityTypeFields)) {
	case "equip", "equipment":
		return EntityEquipment
	}
	return EntitySpace
}

func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "true", "1", "yes", "ja":
			return true
		}
	}
	return false
}

func resolveKind(name string) Kind {
	switch name {
	case MarkerOpened:
		return KindOpened
	case MarkerSubmitted:
		return KindSubmitted
	default:
		return KindOther
	}
}

// firstString devuelve el primer campo escalar no vacío de la cadena.
func firstString(doc gjson.Result, fields []string) string {
	for _, f := range fields {
		v := doc.Get(f)
		switch v.Type {
		case gjson.String, gjson.Number:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
