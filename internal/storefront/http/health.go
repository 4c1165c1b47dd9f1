package http

import (
	"net/http"
	"time"

	"github.com/zefruta/storefront/internal/storefront/store"
	"github.com/zefruta/storefront/pkg/authsdk"
	"github.com/zefruta/storefront/pkg/httpx"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 while the process is running.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Reports degraded until session storage answers and the startup session
//	@Description	check has finished.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse	"storage unavailable or session check running"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, st store.Store, provider authsdk.Readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"storage": "ok",
			"session": "ok",
		}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks["storage"] = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if provider != nil && !provider.Ready() {
			checks["session"] = "starting"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
