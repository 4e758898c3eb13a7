package bofhd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTLSConfig(t *testing.T) {
	cfg, err := buildTLSConfig(TLSOptions{})
	require.NoError(t, err)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.RootCAs)

	cfg, err = buildTLSConfig(TLSOptions{Insecure: true})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)

	_, err = buildTLSConfig(TLSOptions{CAFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.pem")
	require.NoError(t, os.WriteFile(bogus, []byte("not a certificate"), 0o600))
	_, err = buildTLSConfig(TLSOptions{CAFile: bogus})
	assert.Error(t, err)
}

func TestNewHTTPTransport(t *testing.T) {
	rt, err := NewHTTPTransport(TLSOptions{Insecure: true}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, rt.TLSHandshakeTimeout)
	assert.True(t, rt.TLSClientConfig.InsecureSkipVerify)
}
