package minerquery

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

// ErrUnknownMiner is returned when a symbolic miner key is not present in the
// registry it is resolved against.
var ErrUnknownMiner = errors.New("unknown miner key")

// Registry maps symbolic miner keys to base URLs. Pass one explicitly to
// NewMinerFromKey; there is deliberately no process-global table.
type Registry map[string]string

// DefaultRegistry returns the built-in table of well-known public miner
// endpoints.
func DefaultRegistry() Registry {
	return Registry{
		"taal":        "https://merchantapi.taal.com",
		"mempool":     "https://www.ddpurse.com/openapi",
		"matterpool":  "https://merchantapi.matterpool.io",
		"gorillapool": "https://merchantapi.gorillapool.io",
	}
}

// Miner describes one remote miner endpoint. A Miner is immutable once
// constructed; the dispatcher hands the same value back alongside every
// outcome, so duplicate identities are harmless.
type Miner struct {
	// Name is the symbolic key the miner was constructed from, or "" when it
	// was constructed from a raw URL.
	Name string
	// BaseURL is the resolved endpoint base.
	BaseURL *url.URL
	// Headers are sent with every request to this miner, typically API tokens.
	Headers http.Header

	hclient *http.Client
}

// NewMiner creates a miner endpoint from a base URL. headers may be nil.
func NewMiner(rawurl string, headers http.Header) (*Miner, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("miner URL needs a scheme and host")
	}
	return &Miner{
		BaseURL: u,
		Headers: headers,
		hclient: newMinerHTTPClient(),
	}, nil
}

// NewMinerFromKey creates a miner endpoint by resolving a symbolic key
// against reg. headers may be nil.
func NewMinerFromKey(key string, reg Registry, headers http.Header) (*Miner, error) {
	rawurl, ok := reg[key]
	if !ok {
		return nil, ErrUnknownMiner
	}
	toret, err := NewMiner(rawurl, headers)
	if err != nil {
		return nil, err
	}
	toret.Name = key
	return toret, nil
}

// HTTPClient returns the transport handle owned by this miner.
func (m *Miner) HTTPClient() *http.Client {
	return m.hclient
}

// String returns the symbolic key if present, otherwise the base URL.
func (m *Miner) String() string {
	if m.Name != "" {
		return m.Name
	}
	return m.BaseURL.String()
}

func newMinerHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:      2,
			IdleConnTimeout:   time.Second * 10,
			DisableKeepAlives: false,
		},
	}
}
