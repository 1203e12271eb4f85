package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableStatus(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{0, false},
		{400, true},
		{404, true},
		{499, true},
		{500, false},
		{501, false},
		{502, false},
		{503, true},
		{504, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, IsRetryableStatus(tc.status), "status %d", tc.status)
	}
}

func TestNewTransportError_RetryableReflectsStatus(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		wantRetry  bool
	}{
		{"no HTTP response at all stays retryable", 0, true},
		{"404 is retryable (rebuild path)", 404, true},
		{"generic 4xx is retryable", 400, true},
		{"503 is retryable", 503, true},
		{"500 is non-retryable", 500, false},
		{"501 is non-retryable", 501, false},
		{"502 is non-retryable", 502, false},
		{"504 is non-retryable", 504, false},
	}
	for _, tc := range cases {
		te := NewTransportError(tc.statusCode, nil)
		assert.Equalf(t, tc.wantRetry, te.Retryable, tc.name)
		assert.Equal(t, tc.statusCode, te.StatusCode)
	}
}

func TestFindTransportError_IgnoresNonRetryableTransportError(t *testing.T) {
	wrapped := errors.New("wrapped")
	te := NewTransportError(500, wrapped)

	assert.Nil(t, FindTransportError(te), "a non-retryable TransportError must not be found")
}

func TestFindTransportError_FindsRetryableTransportError(t *testing.T) {
	te := NewTransportError(503, nil)

	found := FindTransportError(te)
	require := assert.New(t)
	require.NotNil(found)
	require.Equal(503, found.StatusCode)
}
