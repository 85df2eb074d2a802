package branch

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bluehands/internal/model"
)

// Searcher is the read surface the HTTP API needs. *Store implements it.
type Searcher interface {
	Search(ctx context.Context, f Filter) ([]Result, error)
	Regions(ctx context.Context) ([]model.Region, error)
	ServiceTypes(ctx context.Context) ([]model.ServiceType, error)
}

// NewHandler builds the read API router.
func NewHandler(s Searcher, corsOrigins []string) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/regions", func(w http.ResponseWriter, r *http.Request) {
		regions, err := s.Regions(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, regions)
	})

	r.Get("/service-types", func(w http.ResponseWriter, r *http.Request) {
		types, err := s.ServiceTypes(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, types)
	})

	r.Get("/branches", func(w http.ResponseWriter, r *http.Request) {
		results, ok := search(w, r, s)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":    len(results),
			"branches": results,
		})
	})

	r.Get("/branches.geojson", func(w http.ResponseWriter, r *http.Request) {
		results, ok := search(w, r, s)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(FeatureCollection(results)) //nolint:errcheck
	})

	return r
}

func search(w http.ResponseWriter, r *http.Request, s Searcher) ([]Result, bool) {
	f, err := ParseFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return nil, false
	}
	results, err := s.Search(r.Context(), f)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return nil, false
	}
	return results, true
}

// ParseFilter reads a Filter from the query string: q, flag (repeatable or
// comma separated), region, lat + lng, limit.
func ParseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{
		Text:   q.Get("q"),
		Region: q.Get("region"),
	}

	for _, raw := range q["flag"] {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			fl, err := model.ParseFlag(name)
			if err != nil {
				return Filter{}, err
			}
			f.Flags = append(f.Flags, fl)
		}
	}

	lat, lng := q.Get("lat"), q.Get("lng")
	switch {
	case lat == "" && lng == "":
	case lat == "" || lng == "":
		return Filter{}, eris.New("branch: lat and lng must be given together")
	default:
		la, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return Filter{}, eris.Wrapf(err, "branch: invalid lat %q", lat)
		}
		lo, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return Filter{}, eris.Wrapf(err, "branch: invalid lng %q", lng)
		}
		f.Near = &Point{Lat: la, Lon: lo}
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Filter{}, eris.Errorf("branch: invalid limit %q", v)
		}
		f.Limit = n
	}
	return f, nil
}

// Serve runs the read API on port until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, port int, h http.Handler) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: h,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "branch: server")
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		zap.L().Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
