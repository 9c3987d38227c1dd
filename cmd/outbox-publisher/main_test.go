package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreflightNamesFailingDependency(t *testing.T) {
	checks := map[string]func(context.Context) error{
		"database": func(context.Context) error { return nil },
		"pubsub":   func(context.Context) error { return errors.New("topic missing") },
	}
	err := preflight(context.Background(), checks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pubsub ping failed")
}

func TestOpsServerProbes(t *testing.T) {
	healthy := true
	checks := map[string]func(context.Context) error{
		"database": func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("down")
		},
	}
	srv := opsServer("0", prometheus.NewRegistry(), checks)

	for _, tc := range []struct {
		path    string
		healthy bool
		want    int
	}{
		{"/health/live", false, http.StatusOK},
		{"/health/ready", true, http.StatusOK},
		{"/health/ready", false, http.StatusServiceUnavailable},
		{"/metrics", true, http.StatusOK},
	} {
		healthy = tc.healthy
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.want {
			t.Fatalf("%s (healthy=%v): expected %d got %d", tc.path, tc.healthy, tc.want, rec.Code)
		}
	}
}
