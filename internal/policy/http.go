package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fnolapi/internal/config"
	"fnolapi/internal/model"
)

// HTTPOracle validates policy numbers against an external Policy Admin
// System over HTTP. Transport failures and non-2xx replies surface as
// ErrOracleUnavailable so callers never mistake an outage for a rejection.
type HTTPOracle struct {
	endpoint string
	client   *http.Client
}

func NewHTTPOracle(cfg config.OracleConfig) *HTTPOracle {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPOracle{
		endpoint: cfg.Endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type validateRequest struct {
	PolicyNumber string `json:"policy_number"`
}

func (o *HTTPOracle) Validate(ctx context.Context, policyNumber string) (*model.PolicyVerdict, error) {
	// Format failures never reach the backend.
	if !ValidFormat(policyNumber) {
		return invalidVerdict(policyNumber), nil
	}

	body, err := json.Marshal(validateRequest{PolicyNumber: policyNumber})
	if err != nil {
		return nil, fmt.Errorf("encode validate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrOracleUnavailable, resp.StatusCode)
	}

	var verdict model.PolicyVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("%w: decode verdict: %s", ErrOracleUnavailable, err)
	}
	if verdict.PolicyNumber == "" {
		verdict.PolicyNumber = policyNumber
	}
	return &verdict, nil
}

var _ Oracle = (*HTTPOracle)(nil)
