package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

var sendTracer = otel.Tracer("gendei.internal.gateway.send")

// SecretHeader carries the service-to-service shared secret on every call.
const SecretHeader = "X-Gendei-Service-Secret"

// TextMessage is one outbound WhatsApp text.
type TextMessage struct {
	ClinicID      string `json:"clinicId"`
	PhoneNumberID string `json:"phoneNumberId"`
	To            string `json:"to"`
	Text          string `json:"text"`
}

// Client posts messages to the WhatsApp gateway. Template rendering and
// delivery live behind the gateway; this client only hands over text.
// Transient failures are not retried here: the next scheduled run re-evaluates
// the same appointment, which is the system's retry loop.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient builds a gateway client for the given base URL.
func NewClient(baseURL, secret string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// SendText dispatches one message. Any non-2xx response is an error.
func (c *Client) SendText(ctx context.Context, msg TextMessage) error {
	if c.baseURL == "" {
		return errors.New("gateway: base url missing")
	}
	if msg.To == "" {
		return errors.New("gateway: to required")
	}
	if strings.TrimSpace(msg.Text) == "" {
		return errors.New("gateway: text required")
	}

	ctx, span := sendTracer.Start(ctx, "gateway.send_text", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("gendei.clinic_id", msg.ClinicID),
		attribute.String("gendei.to", msg.To),
	)

	bodyBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("gateway: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("gateway send failed", "error", err, "clinic_id", msg.ClinicID, "to", msg.To)
		return fmt.Errorf("gateway: send: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Info("gateway message sent", "clinic_id", msg.ClinicID, "to", msg.To)
		return nil
	}

	var errorBody map[string]interface{}
	if len(body) > 0 && json.Unmarshal(body, &errorBody) == nil {
		err = fmt.Errorf("gateway: send failed: status %d, body: %v", resp.StatusCode, errorBody)
	} else {
		err = fmt.Errorf("gateway: send failed: status %d", resp.StatusCode)
	}
	span.RecordError(err)
	c.logger.Error("gateway send rejected", "error", err, "clinic_id", msg.ClinicID, "to", msg.To)
	return err
}
