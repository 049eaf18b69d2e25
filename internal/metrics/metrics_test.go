package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	t.Parallel()
	m := New()

	m.CodeIssued("3")
	m.CodeIssued("3")
	m.Exchange(OutcomeIssued)
	m.Exchange(OutcomeMissing)
	m.Exchange(OutcomeMissing)
	m.Revoked()
	m.LoginRejected("credentials")
	m.Request("/token", "200")

	require.Equal(t, 2.0, testutil.ToFloat64(m.codesIssued.WithLabelValues("3")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.exchanges.WithLabelValues(OutcomeIssued)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.exchanges.WithLabelValues(OutcomeMissing)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.revocations))
	require.Equal(t, 1.0, testutil.ToFloat64(m.loginRejected.WithLabelValues("credentials")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/token", "200")))
}

func TestNilMetrics_NoPanic(t *testing.T) {
	t.Parallel()
	var m *Metrics
	require.NotPanics(t, func() {
		m.CodeIssued("1")
		m.Exchange(OutcomeError)
		m.Revoked()
		m.LoginRejected("rate_limited")
		m.Request("/authorize", "500")
	})
}

func TestHandler_Exposition(t *testing.T) {
	t.Parallel()
	m := New()
	m.Revoked()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "gophauth_token_revocations_total 1")
}
