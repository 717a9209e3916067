package pipeline

import (
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Magnet is the part of a magnet URI used to describe a run in logs.
type Magnet struct {
	InfoHash    [20]byte
	DisplayName string
	Trackers    []string
}

func (m *Magnet) String() string {
	if m.DisplayName != "" {
		return fmt.Sprintf("%s (%x)", m.DisplayName, m.InfoHash)
	}
	return fmt.Sprintf("%x", m.InfoHash)
}

// ValidMagnet reports whether s looks like a magnet URI. Only the scheme is
// checked; the remote service decides whether the rest is usable.
func ValidMagnet(s string) bool {
	return strings.HasPrefix(s, "magnet:") && len(s) > len("magnet:")
}

// ParseMagnet extracts the BitTorrent info hash, display name and trackers.
func ParseMagnet(raw string) (*Magnet, error) {
	if !strings.HasPrefix(raw, "magnet:") {
		return nil, ErrInvalidMagnet
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	q := u.Query()

	xt := q.Get("xt")
	if !strings.HasPrefix(xt, "urn:btih:") {
		return nil, errors.New("missing or invalid xt parameter")
	}

	hash, err := decodeHash(strings.TrimPrefix(xt, "urn:btih:"))
	if err != nil {
		return nil, err
	}

	var trackers []string
	for _, tr := range q["tr"] {
		if tr != "" {
			trackers = append(trackers, tr)
		}
	}

	return &Magnet{
		InfoHash:    hash,
		DisplayName: q.Get("dn"),
		Trackers:    trackers,
	}, nil
}

func decodeHash(s string) ([20]byte, error) {
	var out [20]byte
	switch len(s) {
	case 40:
		_, err := hex.Decode(out[:], []byte(s))
		return out, err
	case 32:
		_, err := base32.StdEncoding.Decode(out[:], []byte(strings.ToUpper(s)))
		return out, err
	default:
		return out, errors.New("info hash length invalid")
	}
}
