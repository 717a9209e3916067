package pipeline

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexHash = "c12fe1c06bba254a9dc9f519b335aa7c1367a88a"

func TestParseMagnetHex(t *testing.T) {
	m, err := ParseMagnet("magnet:?xt=urn:btih:" + hexHash + "&dn=Some+Movie&tr=udp%3A%2F%2Ftracker.example%3A80&tr=")
	require.NoError(t, err)

	assert.Equal(t, hexHash, hex.EncodeToString(m.InfoHash[:]))
	assert.Equal(t, "Some Movie", m.DisplayName)
	assert.Equal(t, []string{"udp://tracker.example:80"}, m.Trackers)
	assert.Equal(t, "Some Movie ("+hexHash+")", m.String())
}

func TestParseMagnetBase32(t *testing.T) {
	m, err := ParseMagnet("magnet:?xt=urn:btih:YEX6DQDLXISUVHOJ6UM3GNNKPQJWPKEK")
	require.NoError(t, err)
	assert.Equal(t, hexHash, hex.EncodeToString(m.InfoHash[:]))
	assert.Equal(t, hexHash, m.String())
}

func TestParseMagnetErrors(t *testing.T) {
	_, err := ParseMagnet("http://example.com")
	assert.ErrorIs(t, err, ErrInvalidMagnet)

	_, err = ParseMagnet("magnet:?dn=nohash")
	assert.Error(t, err)

	_, err = ParseMagnet("magnet:?xt=urn:btih:abc")
	assert.Error(t, err)
}
