package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kvesta/vulngate/internal/vulnscan"
	"github.com/kvesta/vulngate/pkg/packages"
	"github.com/kvesta/vulngate/pkg/vulnlib"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/json"
)

const maxBodySize = 10 << 20

// Server checks dependency trees posted over HTTP. All requests share the
// scanner and with it the report cache.
type Server struct {
	Scanner *vulnscan.Scanner

	// Cache is swept for idle entries every Sweep while serving.
	Cache *vulnlib.ReportCache
	Sweep time.Duration

	Gatherer prometheus.Gatherer
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/check", s.checkHandler).Methods(http.MethodPost)

	gatherer := s.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

// checkHandler answers 200 with the verdict, passed or not. A failed lookup
// answers 502 unless the rule is best-effort.
func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	scanner := *s.Scanner

	if value := r.URL.Query().Get("transitive"); value != "" {
		transitive, err := strconv.ParseBool(value)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid transitive parameter: " + value})
			return
		}
		scanner.Rule.Transitive = transitive
	}

	root, err := packages.ParseTree(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	verdict, err := scanner.Scan(r.Context(), &packages.Module{Source: "request", Root: root})
	if err != nil {
		logrus.Errorf("Error checking %s: %v", root.Artifact, err)

		var upstream *vulnlib.UpstreamError
		if errors.As(err, &upstream) {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logrus.Errorf("Error encoding response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// ListenAndServe serves on addr until ctx is done. The cache is emptied once
// the server has stopped.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           s.Handler(),
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.Cache != nil {
		logrus.Debugf("Report cache holds up to %d reports", s.Cache.Cap())
		defer s.Cache.Purge()

		if s.Sweep > 0 {
			go s.Cache.Run(ctx, s.Sweep)
		}
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("Error shutting down server: %v", err)
		}
	}()

	logrus.Infof("server is running at %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "serve %s", addr)
	}
	return nil
}
