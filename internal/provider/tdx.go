package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"StockScreener/internal/model"
)

// TDXClient implements Provider against a TDX quote gateway's REST API.
type TDXClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewTDXClient creates a gateway client with optional proxy support.
// rps throttles outgoing requests so a worker pool cannot flood the gateway.
func NewTDXClient(baseURL, apiKey, proxyURL string, rps float64) *TDXClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if rps <= 0 {
		rps = 20
	}
	return &TDXClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
	}
}

func (c *TDXClient) Name() string { return "tdx" }

// tdxInstrument is the expected JSON shape of one listing entry.
type tdxInstrument struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// tdxBar is the expected JSON shape of one daily bar.
type tdxBar struct {
	Date     string  `json:"date"` // YYYYMMDD
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	Turnover float64 `json:"amount"`
}

// ListInstruments fetches the Shanghai and Shenzhen listings and merges them.
func (c *TDXClient) ListInstruments() ([]model.Instrument, error) {
	var all []model.Instrument
	for _, market := range []int{model.MarketShanghai, model.MarketShenzhen} {
		endpoint := fmt.Sprintf("%s/api/v1/stocks?market=%d", c.BaseURL, market)
		body, err := c.get(endpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: list market %d: %v", ErrProviderUnavailable, market, err)
		}
		var entries []tdxInstrument
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("%w: decode listing: %v", ErrProviderUnavailable, err)
		}
		for _, e := range entries {
			all = append(all, model.Instrument{Code: e.Code, Name: e.Name, Market: market})
		}
	}
	return all, nil
}

// GetDailyBars fetches the count most recent daily bars for one code.
func (c *TDXClient) GetDailyBars(code string, market, count int) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?code=%s&market=%d&count=%d",
		c.BaseURL, url.QueryEscape(code), market, count)
	body, err := c.get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoData, code, err)
	}
	var raw []tdxBar
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", ErrNoData, code, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: empty series", ErrNoData, code)
	}

	bars := make([]model.Bar, 0, len(raw))
	for _, b := range raw {
		d, err := time.Parse("20060102", b.Date)
		if err != nil {
			continue
		}
		bars = append(bars, model.Bar{
			Date:     d,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			Volume:   b.Volume,
			Turnover: b.Turnover,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if len(bars) == 0 || bars[len(bars)-1].Close <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid trailing close", ErrNoData, code)
	}
	return bars, nil
}

func (c *TDXClient) get(endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
