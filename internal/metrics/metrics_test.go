package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.LoginCompleted("code_exchange", "success")
	m.LoginCompleted("code_exchange", "success")
	m.AuthRedirect("no_session")
	m.MemberLookup("miss")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.loginsCompleted.WithLabelValues("code_exchange", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authRedirects.WithLabelValues("no_session")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.memberLookups.WithLabelValues("miss")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LoginLinkRequested("ok")
		m.LoginCompleted("token_hash", "failure")
		m.SessionRefreshed("ok")
		m.AuthRedirect("no_session")
		m.MemberLookup("hit")
		m.RateLimited("member_lookup")
	})
}
