package minerquery

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMiner(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer xyzzy")
	m, err := NewMiner("https://merchantapi.example.com/sub", hdr)
	require.NoError(t, err)
	assert.Equal(t, "https://merchantapi.example.com/sub", m.BaseURL.String())
	assert.Equal(t, "https://merchantapi.example.com/sub", m.String())
	assert.Equal(t, "Bearer xyzzy", m.Headers.Get("Authorization"))
	assert.NotNil(t, m.HTTPClient())
}

func TestNewMinerBadURL(t *testing.T) {
	_, err := NewMiner("not a url", nil)
	assert.Error(t, err)
	_, err = NewMiner("/path/only", nil)
	assert.Error(t, err)
}

func TestNewMinerFromKey(t *testing.T) {
	reg := DefaultRegistry()
	m, err := NewMinerFromKey("taal", reg, nil)
	require.NoError(t, err)
	assert.Equal(t, "taal", m.Name)
	assert.Equal(t, "taal", m.String())
	assert.Equal(t, reg["taal"], m.BaseURL.String())

	_, err = NewMinerFromKey("nobody", reg, nil)
	assert.ErrorIs(t, err, ErrUnknownMiner)
}
