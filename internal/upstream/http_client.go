package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bflows/riskproxy/internal/config"
	"github.com/bflows/riskproxy/internal/metrics"
	"go.uber.org/zap"
)

type httpClient struct {
	cfg     config.UpstreamConfig
	client  *http.Client
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewHTTPClient(cfg config.Config, log *zap.Logger, m *metrics.Metrics) Client {
	return &httpClient{
		cfg:     cfg.Upstream,
		client:  &http.Client{Timeout: cfg.Upstream.Timeout},
		log:     log.Named("upstream.client"),
		metrics: m,
	}
}

func (c *httpClient) CreditScore(ctx context.Context, identifier string) (Response, error) {
	return c.doRequest(ctx, http.MethodGet, c.cfg.RiskBaseURL+"/IT-creditscore-top/"+identifier, c.cfg.RiskToken, nil, "credit-score")
}

func (c *httpClient) CompanyFull(ctx context.Context, identifier string, cb CallbackConfig) (Response, error) {
	payload := map[string]any{
		"callback": cb,
	}
	return c.doRequest(ctx, http.MethodPost, c.cfg.CompanyBaseURL+"/IT-full/"+identifier, c.cfg.CompanyToken, payload, "company-full")
}

func (c *httpClient) NegativeEvent(ctx context.Context, cfPiva string, cb CallbackConfig) (Response, error) {
	payload := map[string]any{
		"cf_piva":  cfPiva,
		"callback": cb,
	}
	return c.doRequest(ctx, http.MethodPost, c.cfg.RiskBaseURL+"/IT-negativita", c.cfg.RiskToken, payload, "negative-event")
}

func (c *httpClient) doRequest(ctx context.Context, method, url, token string, payload any, endpoint string) (Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return Response{}, err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("upstream request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordUpstreamRequest(endpoint, 0)
		}
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(endpoint, resp.StatusCode)
	}
	c.log.Debug("upstream response",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
	)

	return Response{StatusCode: resp.StatusCode, Body: data}, nil
}
