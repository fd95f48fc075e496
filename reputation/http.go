package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPClient talks to a reputation service over a small JSON API:
//
//	GET {base}/domain?host={host}   -> {"category": "..."}
//	GET {base}/invite/{code}        -> GuildInfo | 404
type HTTPClient struct {
	BaseURL string
	Client  *retryablehttp.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	return &HTTPClient{
		BaseURL: baseURL,
		Client:  client,
	}
}

func (c *HTTPClient) ClassifyDomain(ctx context.Context, host string) (Category, error) {
	u := fmt.Sprintf("%s/domain?host=%s", c.BaseURL, url.QueryEscape(host))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return CategoryUnknown, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return CategoryUnknown, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return CategoryUnknown, fmt.Errorf("domain classify failed. status=%d", resp.StatusCode)
	}
	var body struct {
		Category Category `json:"category"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return CategoryUnknown, err
	}
	if body.Category == "" {
		return CategoryUnknown, nil
	}
	return body.Category, nil
}

func (c *HTTPClient) ResolveInvite(ctx context.Context, code string) (*GuildInfo, error) {
	u := fmt.Sprintf("%s/invite/%s", c.BaseURL, url.PathEscape(code))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invite resolve failed. status=%d", resp.StatusCode)
	}
	var info GuildInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
