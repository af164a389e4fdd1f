package common

import (
	"context"
	"net/http"

	"github.com/edupegoretti/sitec/params"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// StartHealthCheckServer serves /livez and /readyz on a side port. Both rdb
// and db may be nil when the deployment runs without that backend, readiness
// then skips the corresponding probe.
func StartHealthCheckServer(ctx context.Context, done chan struct{}, rdb redis.UniversalClient, db *gorm.DB) {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			sqlDB, err := db.DB()
			if err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			if err := sqlDB.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}

		if rdb != nil {
			if _, err := rdb.Ping(r.Context()).Result(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    params.HealthCheckServerAddr,
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		close(done)
	case <-serverErr:
		close(done)
	}
}
