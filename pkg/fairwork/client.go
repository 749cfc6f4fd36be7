package fairwork

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.fairwork.gov.au"
	apiVersion     = "v1"
	userAgent      = "rosterassist/1.0"
)

var (
	ErrBlankAwardCode = errors.New("award code cannot be blank")
	ErrAwardNotFound  = errors.New("award not found")
	ErrBadRequest     = errors.New("invalid request to Fair Work API")
	ErrUnavailable    = errors.New("Fair Work API is currently unavailable")
	ErrMalformed      = errors.New("failed to parse API response")
	ErrNoRates        = errors.New("no rates found for this award")
)

// Rate is the most recent published rate of an award.
type Rate struct {
	AwardCode      string
	Classification string
	Rate           decimal.Decimal
	EffectiveDate  *time.Time
}

type awardResponse struct {
	Data struct {
		Award *struct {
			Code  string `json:"code"`
			Name  string `json:"name"`
			Rates []struct {
				Classification string          `json:"classification"`
				Rate           decimal.Decimal `json:"rate"`
				EffectiveDate  string          `json:"effective_date"`
			} `json:"rates"`
		} `json:"award"`
	} `json:"data"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// FetchAwardRate returns the first (latest) rate listed for the award.
// Failures are one of the package errors, wrapped with detail.
func (c *Client) FetchAwardRate(ctx context.Context, awardCode string) (*Rate, error) {
	awardCode = strings.TrimSpace(awardCode)
	if awardCode == "" {
		return nil, ErrBlankAwardCode
	}

	u := fmt.Sprintf("%s/%s/awards/%s", c.BaseURL, apiVersion, url.PathEscape(awardCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrAwardNotFound, awardCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrBadRequest, resp.StatusCode, string(b))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: unexpected status=%d", ErrUnavailable, resp.StatusCode)
	}

	var api awardResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if api.Data.Award == nil {
		return nil, fmt.Errorf("%w: missing award", ErrMalformed)
	}
	if len(api.Data.Award.Rates) == 0 {
		return nil, ErrNoRates
	}

	latest := api.Data.Award.Rates[0]
	rate := &Rate{
		AwardCode:      awardCode,
		Classification: latest.Classification,
		Rate:           latest.Rate,
	}
	if latest.EffectiveDate != "" {
		if d, err := time.Parse("2006-01-02", latest.EffectiveDate); err == nil {
			rate.EffectiveDate = &d
		}
	}
	return rate, nil
}
