package walletapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/rs/zerolog/log"
)

const (
	paramLocation    = "l6n"
	defaultUserAgent = "FCL Gateway"
)

// Client posts to wallet endpoints and decodes their polling responses.
type Client struct {
	http     *http.Client
	location string
}

func NewClient(httpClient *http.Client, location string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, location: location}
}

// BuildURL adds params to endpoint. The location parameter always comes from
// the client configuration.
func (c *Client) BuildURL(endpoint string, params map[string]string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fcl.Wrapf(fcl.ErrInvalidURL, "invalid endpoint %q", endpoint)
	}

	query := u.Query()
	if c.location != "" {
		query.Set(paramLocation, c.location)
	}
	for name, value := range params {
		if name != paramLocation {
			query.Set(name, value)
		}
	}
	u.RawQuery = query.Encode()

	return u, nil
}

// ExecHTTPPost posts body to endpoint and decodes the response.
func (c *Client) ExecHTTPPost(ctx context.Context, endpoint string, params map[string]string, body []byte) (*fcl.AuthnResponse, error) {
	u, err := c.BuildURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	if body == nil {
		body = []byte("{}")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fcl.Wrap(fcl.ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	log.Debug().Msgf("POST %s", u.Redacted())

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fcl.Wrap(fcl.ErrNetwork, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fcl.Wrap(fcl.ErrNetwork, err)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		log.Warn().Msg(fmt.Sprintf("Wallet endpoint %s answered %d", u.Redacted(), res.StatusCode))
		return nil, fcl.Wrapf(fcl.ErrInvalidResponse, "status %d from %s", res.StatusCode, u.Redacted())
	}

	var decoded fcl.AuthnResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fcl.Wrap(fcl.ErrDecodeFailure, err)
	}
	if decoded.Status == "" {
		return nil, fcl.Wrapf(fcl.ErrDecodeFailure, "response from %s has no status", u.Redacted())
	}

	return &decoded, nil
}
