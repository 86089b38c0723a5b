package upstream

import "context"

// CallbackConfig is handed to the upstream on asynchronous requests so it
// knows where to deliver the out-of-band result.
type CallbackConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Field   string            `json:"field,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Response is the raw upstream reply. A non-2xx status is not an error at
// this layer; transport failures are.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client talks to the external company-data provider.
type Client interface {
	CreditScore(ctx context.Context, identifier string) (Response, error)
	CompanyFull(ctx context.Context, identifier string, cb CallbackConfig) (Response, error)
	NegativeEvent(ctx context.Context, cfPiva string, cb CallbackConfig) (Response, error)
}
