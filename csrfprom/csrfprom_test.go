package csrfprom

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/go-csrf-token/csrf"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := New(reg)
	require.NoError(t, err)

	p, err := csrf.New(csrf.MustSettings(csrf.Options{SecretKey: "secret"}), csrf.WithRecorder(rec))
	require.NoError(t, err)

	_, err = p.Issue("", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.issued))

	rec.Verified(http.MethodPost, csrf.OutcomeOK)
	rec.Verified(http.MethodPost, csrf.OutcomeExpired)
	rec.Verified(http.MethodPost, csrf.OutcomeExpired)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.verified.WithLabelValues("POST", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.verified.WithLabelValues("POST", "expired")))
}

func TestNewTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	b, err := New(reg)
	require.NoError(t, err)

	a.TokenIssued()
	b.TokenIssued()
	assert.Equal(t, 2.0, testutil.ToFloat64(a.issued))
}
