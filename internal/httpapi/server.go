// Package httpapi serves the city/weather service as a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leonardcser/weather-mcp/internal/logger"
	"github.com/leonardcser/weather-mcp/internal/service"
	"github.com/leonardcser/weather-mcp/internal/tools"
	"github.com/leonardcser/weather-mcp/internal/weather"
)

// DefaultRequestTimeout bounds every request.
const DefaultRequestTimeout = 30 * time.Second

// Server routes HTTP requests to the service.
type Server struct {
	svc    tools.Service
	router *chi.Mux
}

// New constructs a Server with middleware and routes configured.
// A timeout <= 0 uses DefaultRequestTimeout.
func New(svc tools.Service, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	s := &Server{svc: svc, router: chi.NewRouter()}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	// stdout belongs to the MCP stdio transport.
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logger.StdLogger(slog.LevelInfo),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(timeout))

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/cities", func(r chi.Router) {
		r.Get("/", s.handleSearch)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleCity)
			r.Get("/forecast", s.handleForecast)
			r.Get("/activities", s.handleActivities)
		})
	})
	return s
}

// Router exposes the root HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", service.DefaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	cities, err := s.svc.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": cities})
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	id, err := cityID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := s.svc.City(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	id, err := cityID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	days, err := intParam(r, "days", service.DefaultDays)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := s.svc.Forecast(r.Context(), id, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	id, err := cityID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	days, err := intParam(r, "days", service.DefaultDays)
	if err != nil {
		writeError(w, err)
		return
	}
	city, ranked, err := s.svc.Activities(r.Context(), id, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"city": city, "activities": ranked})
}

func cityID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &weather.InvalidArgumentError{Field: "city_id", Reason: "must be an integer"}
	}
	return id, nil
}

// intParam reads an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &weather.InvalidArgumentError{Field: name, Reason: "must be an integer"}
	}
	return n, nil
}

type errorBody struct {
	Error struct {
		Code    weather.Code `json:"code"`
		Message string       `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := weather.HTTPStatus(err)
	var body errorBody
	body.Error.Code = weather.CodeOf(err)
	body.Error.Message = err.Error()
	if status == http.StatusInternalServerError {
		logger.Errorf("http: internal error: %v", err)
		body.Error.Message = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
