// Package gcs stores catalog images in a Cloud Storage bucket through the
// JSON API. Requests are authorized by an oauth2 transport built from a
// service account key or application default credentials.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	readWriteScope = "https://www.googleapis.com/auth/devstorage.read_write"
	requestTimeout = 30 * time.Second
	pingTimeout    = 5 * time.Second
	apiBase        = "https://storage.googleapis.com/storage/v1"
	uploadBase     = "https://storage.googleapis.com/upload/storage/v1"
)

type Client struct {
	http       *http.Client
	bucket     string
	publicBase string
	apiBase    string
	uploadBase string
	logg       *logger.Logger
}

// NewClient authorizes against Google and checks the bucket is listable.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	ts, err := tokenSource(ctx, gcp)
	if err != nil {
		return nil, err
	}
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = requestTimeout

	c := newClient(httpClient, cfg, logg)
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", c.bucket), "gcs client initialized")
	}
	return c, nil
}

func newClient(httpClient *http.Client, cfg config.GCSConfig, logg *logger.Logger) *Client {
	public := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if public == "" {
		public = "https://storage.googleapis.com"
	}
	return &Client{
		http:       httpClient,
		bucket:     strings.TrimSpace(cfg.BucketName),
		publicBase: public,
		apiBase:    apiBase,
		uploadBase: uploadBase,
		logg:       logg,
	}
}

// tokenSource prefers inline key JSON, then a key file, then application
// default credentials (metadata server on GCP).
func tokenSource(ctx context.Context, gcp config.GCPConfig) (oauth2.TokenSource, error) {
	key := []byte(strings.TrimSpace(gcp.CredentialsJSON))
	if len(key) == 0 && gcp.ApplicationCredentials != "" {
		raw, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		key = raw
	}
	if len(key) == 0 {
		ts, err := google.DefaultTokenSource(ctx, readWriteScope)
		if err != nil {
			return nil, fmt.Errorf("default gcp credentials: %w", err)
		}
		return ts, nil
	}
	jwtCfg, err := google.JWTConfigFromJSON(key, readWriteScope)
	if err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	return jwtCfg.TokenSource(ctx), nil
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// URL returns the public URL of an object in the bucket.
func (c *Client) URL(key string) string {
	return c.publicBase + "/" + c.bucket + "/" + strings.TrimLeft(key, "/")
}

// Put uploads content with a simple media upload and returns the public URL.
func (c *Client) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	endpoint := c.uploadBase + "/b/" + url.PathEscape(c.bucket) + "/o?" + url.Values{
		"uploadType": {"media"},
		"name":       {key},
	}.Encode()
	resp, err := c.do(ctx, http.MethodPost, endpoint, content, contentType)
	if err != nil {
		return "", err
	}
	defer c.drain(ctx, resp)

	if resp.StatusCode != http.StatusOK {
		return "", statusError("upload", key, resp)
	}
	var object struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&object); err == nil && object.Name != "" {
		key = object.Name
	}
	return c.URL(key), nil
}

// Delete removes an object. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	endpoint := c.apiBase + "/b/" + url.PathEscape(c.bucket) + "/o/" + url.PathEscape(key)
	resp, err := c.do(ctx, http.MethodDelete, endpoint, nil, "")
	if err != nil {
		return err
	}
	defer c.drain(ctx, resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return statusError("delete", key, resp)
}

// Ping lists at most one object, which needs storage.objects.list.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.http == nil {
		return errors.New("gcs client not initialized")
	}
	if c.bucket == "" {
		return errors.New("gcs bucket not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, c.apiBase+"/b/"+url.PathEscape(c.bucket)+"/o?maxResults=1", nil, "")
	if err != nil {
		return err
	}
	defer c.drain(ctx, resp)
	if resp.StatusCode != http.StatusOK {
		return statusError("list", "", resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gcs %s %s: %w", method, c.bucket, err)
	}
	return resp, nil
}

func (c *Client) drain(ctx context.Context, resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if err := resp.Body.Close(); err != nil && c.logg != nil {
		c.logg.WarnErr(ctx, "gcs.close_body", err)
	}
}

// statusError includes the start of the response body, which carries the
// JSON API error reason.
func statusError(op, key string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := fmt.Sprintf("gcs %s failed: %s", op, resp.Status)
	if key != "" {
		msg += " (" + key + ")"
	}
	if detail := strings.TrimSpace(string(body)); detail != "" {
		msg += ": " + detail
	}
	return errors.New(msg)
}
