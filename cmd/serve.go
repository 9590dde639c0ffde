package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored data over a read-only JSON API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve")
		}
		return nil
	},
}

func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			defs, err := st.MetricDefinitions(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, defs)
		})

		r.Route("/stocks/{code}", func(r chi.Router) {
			r.Get("/raw", func(w http.ResponseWriter, req *http.Request) {
				recs, err := st.ListRaw(req.Context(), chi.URLParam(req, "code"))
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, recs)
			})

			r.Get("/raw/{period}", func(w http.ResponseWriter, req *http.Request) {
				rec, err := st.GetRaw(req.Context(), chi.URLParam(req, "code"), chi.URLParam(req, "period"))
				if err != nil {
					writeError(w, err)
					return
				}
				if rec == nil {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "no record"})
					return
				}
				writeJSON(w, http.StatusOK, rec)
			})

			r.Get("/derived", func(w http.ResponseWriter, req *http.Request) {
				recs, err := st.ListDerived(req.Context(), chi.URLParam(req, "code"))
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, recs)
			})

			r.Get("/quality", func(w http.ResponseWriter, req *http.Request) {
				recs, err := st.ListRaw(req.Context(), chi.URLParam(req, "code"))
				if err != nil {
					writeError(w, err)
					return
				}
				type periodQuality struct {
					ReportPeriod string                    `json:"report_period"`
					Quality      model.QualityState        `json:"data_quality"`
					Locked       bool                      `json:"is_locked"`
					Verification *model.VerificationDetail `json:"verification,omitempty"`
				}
				out := make([]periodQuality, 0, len(recs))
				for _, rec := range recs {
					out = append(out, periodQuality{
						ReportPeriod: rec.ReportPeriod,
						Quality:      rec.Quality,
						Locked:       rec.Locked,
						Verification: rec.Verification,
					})
				}
				writeJSON(w, http.StatusOK, out)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
