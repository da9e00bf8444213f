// Command jobs-lambda is the EventBridge scheduler shim. Each scheduled rule
// delivers {"job": "..."} and the shim forwards it as an authenticated POST
// to the lifecycle API, which does the actual work.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/gateway"
)

type config struct {
	upstreamBaseURL string
	serviceSecret   string
	upstreamTimeout time.Duration
}

func loadConfig() (config, error) {
	baseURL := strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL"))
	if baseURL == "" {
		return config{}, errors.New("UPSTREAM_BASE_URL is required")
	}
	secret := strings.TrimSpace(os.Getenv("GENDEI_SERVICE_SECRET"))
	if secret == "" {
		return config{}, errors.New("GENDEI_SERVICE_SECRET is required")
	}

	timeout := 60 * time.Second
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	return config{
		upstreamBaseURL: strings.TrimRight(baseURL, "/"),
		serviceSecret:   secret,
		upstreamTimeout: timeout,
	}, nil
}

type scheduledEvent struct {
	Job string `json:"job"`
}

var jobPaths = map[string]string{
	"reminders":     "/reminders/trigger",
	"payment-holds": "/reminders/cleanup-payment-holds",
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	client := &http.Client{Timeout: cfg.upstreamTimeout}
	lambda.Start(func(ctx context.Context, evt scheduledEvent) error {
		return handle(ctx, cfg, client, evt)
	})
}

func handle(ctx context.Context, cfg config, client *http.Client, evt scheduledEvent) error {
	path, ok := jobPaths[evt.Job]
	if !ok {
		return fmt.Errorf("unknown job %q", evt.Job)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.upstreamBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(gateway.SecretHeader, cfg.serviceSecret)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("job %s failed: status %d: %s", evt.Job, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && !parsed.Success {
		return fmt.Errorf("job %s reported failure: %s", evt.Job, strings.TrimSpace(string(body)))
	}
	return nil
}
