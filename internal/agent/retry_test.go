package agent

import (
	"errors"
	"testing"
)

func TestRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("Rate Limit exceeded"), true},
		{"quota", errors.New("quota exceeded for project"), true},
		{"http 429", errors.New("server returned 429"), true},
		{"service unavailable", errors.New("503 Service Unavailable"), true},
		{"bad gateway", errors.New("upstream 502"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"timeout", errors.New("request timeout"), true},
		{"invalid key", errors.New("invalid api key"), false},
		{"bad request", errors.New("400 bad request"), false},
		{"context canceled", errors.New("context canceled"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := retryableError(tt.err); got != tt.want {
				t.Errorf("retryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultRetryConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.InitialInterval <= 0 || cfg.MaxInterval < cfg.InitialInterval {
		t.Errorf("intervals %v/%v not sensible", cfg.InitialInterval, cfg.MaxInterval)
	}
}
