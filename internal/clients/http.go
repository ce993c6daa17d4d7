package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/acme/order-saga/internal/apperr"
)

const lookupTimeout = 3 * time.Second

// HTTPClient calls the user and product services over HTTP. A lookup that
// times out or fails transport-wise is reported as Internal; a 404 maps to
// NotFound so the orchestrator can abort validation cleanly.
type HTTPClient struct {
	UserBaseURL    string
	ProductBaseURL string
	Client         *http.Client
}

func NewHTTPClient(userBaseURL, productBaseURL string) *HTTPClient {
	return &HTTPClient{
		UserBaseURL:    userBaseURL,
		ProductBaseURL: productBaseURL,
		Client:         &http.Client{Timeout: lookupTimeout},
	}
}

func (c *HTTPClient) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	url := fmt.Sprintf("%s/users/%d", c.UserBaseURL, id)
	if err := c.getJSON(ctx, url, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	url := fmt.Sprintf("%s/products/%d", c.ProductBaseURL, id)
	if err := c.getJSON(ctx, url, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperr.Internalf("build request %s", url)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return apperr.Internalf("call %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperr.NotFoundf("remote resource %s", url)
	case resp.StatusCode != http.StatusOK:
		return apperr.Internalf("call %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Internalf("decode response from %s: %v", url, err)
	}
	return nil
}
