package ning

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/garyburd/go-oauth/oauth"
)

const apiVersion = "1.0"

type Client struct {
	httpClient  *http.Client
	oauthClient *oauth.Client
	baseURL     string
	subdomain   string
	timeout     time.Duration
}

func NewClient(httpClient *http.Client, baseURL, subdomain, consumerKey, consumerSecret string, timeout time.Duration) *Client {
	return &Client{
		httpClient: httpClient,
		oauthClient: &oauth.Client{
			Credentials:     oauth.Credentials{Token: consumerKey, Secret: consumerSecret},
			SignatureMethod: oauth.HMACSHA1,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		subdomain: subdomain,
		timeout:   timeout,
	}
}

func (c *Client) endpoint(resource string) string {
	return fmt.Sprintf("%s/xn/rest/%s/%s/%s", c.baseURL, c.subdomain, apiVersion, resource)
}

// Publish creates a blog post and returns its downstream id.
func (c *Client) Publish(ctx context.Context, token Token, post Post) (string, error) {
	form := url.Values{
		"title":       {post.Title},
		"description": {post.Description},
		"publishTime": {post.PublishTime.UTC().Format(time.RFC3339)},
	}

	return c.post(ctx, token, "BlogPost", form)
}

func (c *Client) post(ctx context.Context, token Token, resource string, form url.Values) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.endpoint(resource)
	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	credentials := &oauth.Credentials{Token: token.Key, Secret: token.Secret}
	if err := c.oauthClient.SetAuthorizationHeader(req.Header, credentials, http.MethodPost, req.URL, form); err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to post %s: %w", resource, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var result response
	if err := json.Unmarshal(data, &result); err != nil {
		if resp.StatusCode/100 != 2 {
			return "", &Error{Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
		}
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Success || resp.StatusCode/100 != 2 {
		apiErr := &Error{
			Status:  result.Status,
			Code:    result.Code,
			Subcode: result.Subcode,
			Reason:  result.Reason,
		}
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode
		}
		return "", apiErr
	}

	return result.ID, nil
}
