package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"go.uber.org/zap"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrLookupDisabled = errors.New("record lookup is not configured")
)

// Provider fetches the subject record an editor is seeded from.
type Provider interface {
	Get(ctx context.Context, id string) (certedit.Record, error)
}

// HTTPProvider reads records from the backend at GET {baseURL}/students/{id}.
// The body is either the record itself or wrapped in {"data": ...}.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	logger  *zap.SugaredLogger
}

func NewHTTPProvider(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *HTTPProvider {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type envelope struct {
	Data *certedit.Record `json:"data"`
}

func (p *HTTPProvider) Get(ctx context.Context, id string) (certedit.Record, error) {
	if p.baseURL == "" {
		return certedit.Record{}, ErrLookupDisabled
	}

	endpoint := fmt.Sprintf("%s/students/%s", p.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return certedit.Record{}, fmt.Errorf("failed to build record request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return certedit.Record{}, fmt.Errorf("failed to fetch record %s: %w", id, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return certedit.Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	case res.StatusCode != http.StatusOK:
		return certedit.Record{}, fmt.Errorf("failed to fetch record %s: unexpected status %d", id, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return certedit.Record{}, fmt.Errorf("failed to read record %s: %w", id, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Data != nil {
		return normalize(*env.Data, id), nil
	}

	var rec certedit.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return certedit.Record{}, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return normalize(rec, id), nil
}

func normalize(r certedit.Record, id string) certedit.Record {
	if r.ID == "" {
		r.ID = id
	}
	return r
}
