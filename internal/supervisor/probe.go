package supervisor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// DefaultHealthURL is the loopback address of the supervised server's
// health endpoint.
const DefaultHealthURL = "http://127.0.0.1:8739/health"

type healthBody struct {
	Status string `json:"status"`
}

// HealthProbe returns a ProbeFunc that issues a GET against url and
// reports ready only for a 2xx response whose JSON body carries
// "status": "ok". Connection errors, bad status codes, and malformed
// bodies all read as not-ready.
func HealthProbe(client *http.Client, url string) ProbeFunc {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	if url == "" {
		url = DefaultHealthURL
	}

	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false
		}

		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return false
		}

		var body healthBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return false
		}
		return body.Status == "ok"
	}
}
