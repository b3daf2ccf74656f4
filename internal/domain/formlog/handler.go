package formlog

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// maxBody: un evento de formulario pesa unos cientos de bytes.
const maxBody = 64 << 10

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/formlog", func(fr chi.Router) {
		if svc.CanIngest() {
			fr.Post("/", ingestHandler(svc))
			fr.Get("/", hintHandler)
			fr.Head("/", noContent)
			fr.Options("/", noContent)
		}
		fr.Get("/tail", tailHandler(svc))
	})
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func hintHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "hint": "POST JSON telemetry to this endpoint"})
}

// ingestHandler godoc
// @Summary Registrar evento de formulario
// @Description Guarda un evento de telemetría (url_load, submit_success, ...) como objeto JSON individual. Pensado para navigator.sendBeacon: responde 204 sin body, también ante JSON inválido o error de escritura. Con `debug=1` devuelve la key escrita o el error.
// @Tags formlog
// @Accept json
// @Produce json
// @Param debug query string false "1 para devolver {ok, key}"
// @Param payload body object true "Evento; code, id, type, isEquipment, description"
// @Success 204 {string} string ""
// @Success 200 {object} map[string]any "solo con debug=1"
// @Failure 500 {object} map[string]any "solo con debug=1"
// @Router /formlog [post]
func ingestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		debug := r.URL.Query().Get("debug") == "1"

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		key, err := svc.Ingest(r.Context(), raw, Meta{
			UserAgent: r.Header.Get("User-Agent"),
			IP:        clientIP(r),
		})
		switch {
		case errors.Is(err, ErrInvalidPayload):
			w.WriteHeader(http.StatusNoContent)
		case err != nil:
			svc.log.Error("formlog write failed", map[string]any{"error": err.Error()})
			if debug {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case debug:
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "key": key})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// tailHandler godoc
// @Summary Últimas líneas registradas
// @Description Lista las keys bajo `code/` y devuelve las 3 últimas líneas de las 10 keys más recientes. Herramienta de diagnóstico.
// @Tags formlog
// @Produce json
// @Param code query string false "Code de formulario (sin code: todo el store)"
// @Success 200 {object} TailResult
// @Failure 500 {object} map[string]any
// @Router /formlog/tail [get]
func tailHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Tail(r.Context(), r.URL.Query().Get("code"))
		if err != nil {
			svc.log.Error("formlog tail failed", map[string]any{"error": err.Error()})
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal"})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// clientIP: chi RealIP ya reescribe RemoteAddr; X-Forwarded-For se guarda
// completo (cadena de proxies incluida).
func clientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		return xff
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
