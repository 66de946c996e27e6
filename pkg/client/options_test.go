package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithHTTPClient(t *testing.T) {
	hc := &http.Client{Timeout: 60 * time.Second}
	c := &Client{}
	WithHTTPClient(hc)(c)
	assert.Same(t, hc, c.httpClient)
}

func TestWithTimeout(t *testing.T) {
	c, err := NewClient("http://localhost:8080", WithTimeout(2*time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Minute, c.httpClient.Timeout)

	c, err = NewClient("http://localhost:8080", WithTimeout(0))
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
}

func TestWithLogger_IgnoresNil(t *testing.T) {
	c, err := NewClient("http://localhost:8080", WithLogger(nil))
	assert.NoError(t, err)
	assert.NotNil(t, c.logger)
}

func TestWithRetryMax(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"positive", 5, 5},
		{"zero", 0, 0},
		{"negative ignored", -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryMax: 3}
			WithRetryMax(tt.input)(c)
			assert.Equal(t, tt.expected, c.retryMax)
		})
	}
}

func TestWithRetryWait(t *testing.T) {
	tests := []struct {
		name      string
		min, max  time.Duration
		expectMin time.Duration
		expectMax time.Duration
	}{
		{"valid range", time.Second, 5 * time.Second, time.Second, 5 * time.Second},
		{"equal values", 2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second},
		{"zero min ignored", 0, 5 * time.Second, time.Millisecond, time.Minute},
		{"max below min keeps max", 5 * time.Second, 2 * time.Second, 5 * time.Second, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryWaitMin: time.Millisecond, retryWaitMax: time.Minute}
			WithRetryWait(tt.min, tt.max)(c)
			assert.Equal(t, tt.expectMin, c.retryWaitMin)
			assert.Equal(t, tt.expectMax, c.retryWaitMax)
		})
	}
}

func TestWithUserAgent(t *testing.T) {
	c := &Client{userAgent: "default"}
	WithUserAgent("")(c)
	assert.Equal(t, "default", c.userAgent)
	WithUserAgent("ingest-bot/1.0")(c)
	assert.Equal(t, "ingest-bot/1.0", c.userAgent)
}

//Personal.AI order the ending
