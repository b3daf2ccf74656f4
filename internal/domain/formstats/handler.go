package formstats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Aggregator es lo que necesita el handler; *Service lo implementa y la
// caché de resultados lo envuelve.
type Aggregator interface {
	Aggregate(ctx context.Context, q Query) (Result, error)
	Discover(ctx context.Context, q Query) (Discovery, error)
}

type HandlerOptions struct {
	Location *time.Location   // para el rango por defecto
	Now      func() time.Time // inyectable en tests
}

func RegisterRoutes(r chi.Router, agg Aggregator, opts HandlerOptions) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r.Route("/formstats", func(fr chi.Router) {
		fr.Get("/", formStatsHandler(agg, opts))
		fr.Head("/", noContent)
		fr.Options("/", noContent)
	})
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// formStatsHandler godoc
// @Summary Estadísticas de formularios por día
// @Description Agrega las aperturas y envíos de formularios por día civil (zona de referencia del servicio). Devuelve `daily` (contadores y detalle por ocurrencia) y `counts` (filas compactas `[date, equip_opened, equip_forwarded, space_opened, space_forwarded]`). Con `debug=1&view=keys` solo lista las keys que se leerían.
// @Tags formstats
// @Produce json
// @Param from query string false "Primer día (YYYY-MM-DD). Por defecto hoy-30"
// @Param to query string false "Último día (YYYY-MM-DD). Por defecto hoy"
// @Param code query string false "Filtra por code de formulario"
// @Param debug query string false "1 para incluir información de diagnóstico"
// @Param view query string false "keys: solo listado de keys (requiere debug=1)"
// @Param concurrency query int false "Lecturas en paralelo (1-32). Por defecto 8"
// @Param maxDays query int false "Días máximos del rango. Por defecto 31"
// @Param maxFiles query int false "Keys máximas a leer. Por defecto 5000"
// @Success 200 {object} Result
// @Failure 400 {object} errorResponse "invalid_range / invalid_code"
// @Failure 413 {object} errorResponse "range_too_large"
// @Failure 500 {object} errorResponse "internal"
// @Failure 504 {object} errorResponse "timeout"
// @Router /formstats [get]
func formStatsHandler(agg Aggregator, opts HandlerOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		q := parseQuery(r, opts)

		if q.Debug && strings.EqualFold(r.URL.Query().Get("view"), "keys") {
			d, err := agg.Discover(r.Context(), q)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, d)
			return
		}

		res, err := agg.Aggregate(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "GET, HEAD, OPTIONS")
	w.WriteHeader(http.StatusNoContent)
}

func parseQuery(r *http.Request, opts HandlerOptions) Query {
	v := r.URL.Query()

	defFrom, defTo := DefaultRange(opts.Now(), opts.Location)
	q := Query{
		From:  dateParam(v.Get("from")),
		To:    dateParam(v.Get("to")),
		Code:  strings.TrimSpace(v.Get("code")),
		Debug: isTruthy(v.Get("debug")),
	}
	if q.From == "" {
		q.From = defFrom
	}
	if q.To == "" {
		q.To = defTo
	}

	q.Concurrency = intParam(v.Get("concurrency"))
	q.MaxDays = intParam(v.Get("maxDays"))
	q.MaxFiles = intParam(v.Get("maxFiles"))
	return q
}

// dateParam toma solo YYYY-MM-DD: los clientes a veces mandan un ISO completo.
func dateParam(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(dateLayout) {
		raw = raw[:len(dateLayout)]
	}
	return raw
}

// intParam: vacío, inválido o negativo => 0 (default del servicio). El tope lo
// aplica Service.Validate.
func intParam(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Credenciales que algunos backends incluyen en sus errores (SAS, DSN).
var secretRe = regexp.MustCompile(`(?i)(sig|token|password|accountkey|secret)=[^&;\s"]+`)

func redact(s string) string {
	return secretRe.ReplaceAllString(s, "$1=REDACTED")
}

func writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if verr.Kind == ErrKindRangeTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse{Error: verr.Kind, Message: verr.Message})
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "timeout", Message: "aggregation exceeded its time budget"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: redact(err.Error())})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
