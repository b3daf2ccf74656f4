package formlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"facility-portal/internal/platform/logger"
	"facility-portal/internal/ports/blobstore"
)

var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrReadOnly       = errors.New("store is read-only")
	ErrNoAppend       = errors.New("store does not support append")
)

// Shape es el formato en que se escribe cada evento.
type Shape string

const (
	// ShapeEvent: un objeto por evento, <code>/<día>/<epoch-ms>-<rand6>.json
	ShapeEvent Shape = "event"
	// ShapeDaily: una línea por evento en <code>/<día>.ndjson
	ShapeDaily Shape = "daily"
)

func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case ShapeEvent, "":
		return ShapeEvent, nil
	case ShapeDaily:
		return ShapeDaily, nil
	}
	return "", fmt.Errorf("unknown formlog shape %q", s)
}

const (
	DefaultCode   = "unknown"
	MaxCodeLength = 64

	tailKeys  = 10
	tailLines = 3
	// tope del listado para tail (sin code el prefijo es todo el store)
	tailMaxList = 20000
)

type Service struct {
	reader blobstore.Reader
	writer blobstore.Writer // nil => sin ingesta
	shape  Shape
	log    logger.Logger
	now    func() time.Time
	rand   func() string
}

// NewService: writer puede ser nil cuando el backend es solo lectura.
func NewService(r blobstore.Reader, w blobstore.Writer, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		reader: r,
		writer: w,
		shape:  ShapeEvent,
		log:    log,
		now:    time.Now,
		rand:   randSuffix,
	}
}

func (s *Service) CanIngest() bool { return s.writer != nil }

// SetShape cambia el formato de escritura. ShapeDaily exige un writer que
// implemente blobstore.Appender.
func (s *Service) SetShape(shape Shape) error {
	if shape == ShapeDaily {
		if _, ok := s.writer.(blobstore.Appender); !ok {
			return ErrNoAppend
		}
	}
	s.shape = shape
	return nil
}

// Ingest guarda un evento del formulario según el shape configurado
// (día UTC en la key). Devuelve la key escrita.
func (s *Service) Ingest(ctx context.Context, raw []byte, meta Meta) (string, error) {
	if s.writer == nil {
		return "", ErrReadOnly
	}

	data, err := decodeObject(raw)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	code := sanitizeCode(scalarString(data["code"]))
	id := strings.TrimSpace(scalarString(data["id"]))
	if id == "" {
		id = code
	}

	data["code"] = code
	data["id"] = id
	data["ts"] = now.UnixMilli()
	data["ts_server"] = now.Format("2006-01-02T15:04:05.000Z")
	data["ua"] = meta.UserAgent
	data["ip"] = meta.IP

	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}

	day := now.Format("2006-01-02")
	var key string
	if s.shape == ShapeDaily {
		key = code + "/" + day + ".ndjson"
		err = s.writer.(blobstore.Appender).Append(ctx, key, append(body, '\n'))
	} else {
		key = fmt.Sprintf("%s/%s/%d-%s.json", code, day, now.UnixMilli(), s.rand())
		err = s.writer.Put(ctx, key, body)
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}

	s.log.Debug("formlog event stored", map[string]any{"key": key, "code": code})
	return key, nil
}

// Tail lee las últimas líneas de los objetos más recientes (orden de key) bajo code/.
func (s *Service) Tail(ctx context.Context, code string) (TailResult, error) {
	code = strings.TrimSpace(code)
	prefix := ""
	if code != "" {
		prefix = code + "/"
	}

	keys, truncated, err := blobstore.ListAll(ctx, s.reader, prefix, tailMaxList)
	if err != nil {
		return TailResult{}, fmt.Errorf("list %q: %w", prefix, err)
	}
	sort.Strings(keys)

	recent := keys
	if len(recent) > tailKeys {
		recent = recent[len(recent)-tailKeys:]
	}

	out := TailResult{OK: true, Prefix: prefix, Count: len(keys), Truncated: truncated, Items: make([]TailItem, 0, len(recent))}
	for _, k := range recent {
		body, err := s.reader.Get(ctx, k)
		if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			return TailResult{}, fmt.Errorf("get %s: %w", k, err)
		}
		out.Items = append(out.Items, TailItem{Key: k, Size: len(body), Tail: lastLines(body, tailLines)})
	}
	return out, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil || data == nil {
		return nil, ErrInvalidPayload
	}
	return data, nil
}

// scalarString convierte code/id a string sin perder ceros a la izquierda
// (los clientes mandan "007" o 7 indistintamente).
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return fmt.Sprint(t)
	}
	return ""
}

// sanitizeCode deja el code usable como primer segmento de key.
// MaxCodeLength se mide en bytes; el corte nunca parte una runa.
func sanitizeCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, "/", "_")
	if len(code) > MaxCodeLength {
		cut := MaxCodeLength
		for cut > 0 && !utf8.RuneStart(code[cut]) {
			cut--
		}
		code = code[:cut]
	}
	if code == "" {
		return DefaultCode
	}
	return code
}

func randSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

func lastLines(body []byte, n int) []json.RawMessage {
	lines := bytes.Split(bytes.TrimSpace(body), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]json.RawMessage, 0, len(lines))
	for _, l := range lines {
		l = bytes.TrimSpace(l)
		if len(l) == 0 {
			continue
		}
		if json.Valid(l) {
			out = append(out, json.RawMessage(l))
			continue
		}
		quoted, _ := json.Marshal(string(l))
		out = append(out, quoted)
	}
	return out
}
