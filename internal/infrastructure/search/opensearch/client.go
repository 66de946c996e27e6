// Package opensearch indexes normalized documents for full-text and facet
// search.
package opensearch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// DefaultIndexName is used when the configuration leaves the index unset.
const DefaultIndexName = "patents"

var (
	ErrInvalidConfig    = errors.New(errors.ErrCodeValidation, "invalid opensearch configuration")
	ErrConnectionFailed = errors.New(errors.ErrCodeServiceUnavailable, "opensearch connection failed")
)

// Client manages the OpenSearch connection.
type Client struct {
	client  *opensearch.Client
	cfg     config.OpenSearchConfig
	logger  logging.Logger
	healthy atomic.Bool
}

// NewClient creates a client and verifies connectivity.
func NewClient(ctx context.Context, cfg config.OpenSearchConfig, logger logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.BulkBatchSize <= 0 {
		cfg.BulkBatchSize = 500
	}

	transport := &http.Transport{MaxIdleConnsPerHost: 10}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		MaxRetries:    3,
		RetryBackoff:  func(i int) time.Duration { return time.Duration(i) * 100 * time.Millisecond },
		RetryOnStatus: []int{502, 503, 504, 429},
		Transport:     transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create opensearch client")
	}

	c := &Client{client: client, cfg: cfg, logger: logging.OrDefault(logger)}
	if err := c.Ping(ctx); err != nil {
		return nil, ErrConnectionFailed
	}
	c.logger.Info("Connected to OpenSearch",
		logging.Any("addresses", cfg.Addresses),
		logging.String("index", cfg.IndexName))
	return c, nil
}

// Ping checks the connection to OpenSearch.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping failed", logging.Err(err))
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping returned error status", logging.Int("status", resp.StatusCode))
		return errors.Newf(errors.ErrCodeServiceUnavailable, "ping returned status %d", resp.StatusCode)
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy reports the result of the last ping.
func (c *Client) IsHealthy() bool { return c.healthy.Load() }

// IndexName is the index documents are written to.
func (c *Client) IndexName() string { return c.cfg.IndexName }

// GetClient returns the underlying OpenSearch client.
func (c *Client) GetClient() *opensearch.Client { return c.client }

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg config.OpenSearchConfig) error {
	if len(cfg.Addresses) == 0 {
		return ErrInvalidConfig
	}
	if cfg.BulkBatchSize < 0 {
		return errors.New(errors.ErrCodeValidation, "bulk_batch_size must be >= 0")
	}
	return nil
}

// responseError converts an error response into an error carrying the
// server's reason.
func responseError(resp *opensearchapi.Response, code errors.ErrorCode, msg string) error {
	var body struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Reason != "" {
		return errors.Newf(code, "%s: %s - %s", msg, body.Error.Type, body.Error.Reason)
	}
	return errors.Newf(code, "%s: status %d", msg, resp.StatusCode)
}

//Personal.AI order the ending
