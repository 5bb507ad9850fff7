// Package countries supplies the country names offered by the form's country pickers.
package countries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"invoiceform/internal/logger"
)

// ErrFetchFailed is returned when the country list cannot be retrieved.
var ErrFetchFailed = errors.New("country list unavailable")

// Provider returns country display names.
type Provider interface {
	Countries(ctx context.Context) ([]string, error)
}

// Static is a fixed country list.
type Static []string

// Countries implements Provider.
func (s Static) Countries(context.Context) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// RESTCountries reads common country names from a REST Countries v3.1 endpoint.
type RESTCountries struct {
	url     string
	timeout time.Duration
	client  *http.Client
	log     zerolog.Logger
}

// NewRESTCountries creates a provider for url, e.g.
// https://restcountries.com/v3.1/all?fields=name.
func NewRESTCountries(url string, timeout time.Duration, client *http.Client) *RESTCountries {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RESTCountries{
		url:     url,
		timeout: timeout,
		client:  client,
		log:     logger.WithComponent("countries"),
	}
}

// Countries fetches the list and returns the names sorted alphabetically.
func (p *RESTCountries) Countries(ctx context.Context) ([]string, error) {
	const op = "Countries"

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: status %d", op, ErrFetchFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrFetchFailed, err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%s: %w: response is not JSON", op, ErrFetchFailed)
	}

	var names []string
	for _, name := range gjson.GetBytes(raw, "#.name.common").Array() {
		if s := name.String(); s != "" {
			names = append(names, s)
		}
	}
	sort.Strings(names)

	p.log.Debug().Int("countries", len(names)).Msg("Country list fetched")
	return names, nil
}
