package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnolapi/internal/config"
	"fnolapi/internal/model"
)

func TestValidFormat(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"POL-123456", true},
		{"POL-12345678", true},
		{"POL-12345", false},
		{"POL-123456789", false},
		{"POL-ABCDEF", false},
		{"pol-123456", false},
		{"123456", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidFormat(tc.number), tc.number)
	}
}

func TestStaticOracle(t *testing.T) {
	o := NewStaticOracle(nil)
	ctx := context.Background()

	t.Run("known active policy", func(t *testing.T) {
		v, err := o.Validate(ctx, "POL-123456")
		require.NoError(t, err)
		assert.True(t, v.Valid)
		assert.Equal(t, model.PolicyStatusActive, v.Status)
		require.NotNil(t, v.Metadata)
		assert.Equal(t, "Sample Policy Holder", v.Metadata.PolicyHolder)
	})

	t.Run("known lapsed policy is checked-and-failed", func(t *testing.T) {
		v, err := o.Validate(ctx, "POL-000000")
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Equal(t, model.PolicyStatusLapsed, v.Status)
	})

	t.Run("bad format never reaches the table", func(t *testing.T) {
		v, err := o.Validate(ctx, "POL-12")
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Equal(t, model.PolicyStatusInvalid, v.Status)
		assert.NotEmpty(t, v.Message)
	})

	t.Run("unknown well-formed number defaults to active", func(t *testing.T) {
		v, err := o.Validate(ctx, "POL-424242")
		require.NoError(t, err)
		assert.True(t, v.Valid)
		assert.Equal(t, model.PolicyStatusActive, v.Status)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		first, err := o.Validate(ctx, "POL-777777")
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := o.Validate(ctx, "POL-777777")
			require.NoError(t, err)
			assert.Equal(t, first.Status, again.Status)
			assert.Equal(t, first.Valid, again.Valid)
		}
	})

	t.Run("extra fixtures override defaults", func(t *testing.T) {
		custom := NewStaticOracle(map[string]model.PolicyStatus{
			"POL-123456": model.PolicyStatusLapsed,
		})
		v, err := custom.Validate(ctx, "POL-123456")
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Equal(t, model.PolicyStatusLapsed, v.Status)
	})
}

func TestHTTPOracle(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes backend verdict", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"policy_number":"POL-123456","valid":true,"status":"active"}`))
		}))
		defer srv.Close()

		o := NewHTTPOracle(config.OracleConfig{Endpoint: srv.URL, TimeoutSec: 2})
		v, err := o.Validate(ctx, "POL-123456")
		require.NoError(t, err)
		assert.True(t, v.Valid)
		assert.Equal(t, model.PolicyStatusActive, v.Status)
	})

	t.Run("backend outage is unavailable, not invalid", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		o := NewHTTPOracle(config.OracleConfig{Endpoint: srv.URL, TimeoutSec: 2})
		_, err := o.Validate(ctx, "POL-123456")
		assert.ErrorIs(t, err, ErrOracleUnavailable)
	})

	t.Run("unreachable backend is unavailable", func(t *testing.T) {
		o := NewHTTPOracle(config.OracleConfig{Endpoint: "http://127.0.0.1:1", TimeoutSec: 1})
		_, err := o.Validate(ctx, "POL-123456")
		assert.ErrorIs(t, err, ErrOracleUnavailable)
	})

	t.Run("bad format short-circuits without a request", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
		}))
		defer srv.Close()

		o := NewHTTPOracle(config.OracleConfig{Endpoint: srv.URL, TimeoutSec: 2})
		v, err := o.Validate(ctx, "not-a-policy")
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Equal(t, model.PolicyStatusInvalid, v.Status)
		assert.False(t, called)
	})
}
