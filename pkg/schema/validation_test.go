package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCreate_OK(t *testing.T) {
	v, err := NewRequestValidator()
	require.NoError(t, err)

	req, err := v.ValidateCreate([]byte(`{"secret": "hello", "passphrase": "p1", "ttl_seconds": 60}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", req.Secret)
	assert.Equal(t, "p1", req.Passphrase)
	assert.Equal(t, int64(60), req.TTLSeconds)
}

func TestValidateCreate_OptionalFieldsAbsent(t *testing.T) {
	v, err := NewRequestValidator()
	require.NoError(t, err)

	req, err := v.ValidateCreate([]byte(`{"secret": "bare"}`))
	require.NoError(t, err)
	assert.Empty(t, req.Passphrase)
	assert.Zero(t, req.TTLSeconds)
}

func TestValidateCreate_Rejections(t *testing.T) {
	v, err := NewRequestValidator()
	require.NoError(t, err)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `not json at all`},
		{"missing secret", `{}`},
		{"empty secret", `{"secret": ""}`},
		{"zero ttl", `{"secret": "x", "ttl_seconds": 0}`},
		{"string ttl", `{"secret": "x", "ttl_seconds": "60"}`},
		{"empty passphrase", `{"secret": "x", "passphrase": ""}`},
		{"additional property", `{"secret": "x", "nope": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.ValidateCreate([]byte(tc.body))
			require.Error(t, err)
			assert.Equal(t, ErrCodeValidation, CodeOf(err))
		})
	}
}
