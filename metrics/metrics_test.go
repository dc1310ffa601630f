// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Twice(t *testing.T) {
	// Separate registries may share the same collectors.
	assert.NotPanics(t, func() {
		NewRegistry()
		NewRegistry()
	})
}

func TestHandler_ExposesCounters(t *testing.T) {
	reg := NewRegistry()
	before := promtest.ToFloat64(JobRuns.WithLabelValues("award_badges", ResultOK))
	JobRuns.WithLabelValues("award_badges", ResultOK).Inc()
	assert.Equal(t, before+1, promtest.ToFloat64(JobRuns.WithLabelValues("award_badges", ResultOK)))

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `brikick_job_runs_total{job="award_badges",result="ok"}`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
