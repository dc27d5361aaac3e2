package extrinsic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/inkctl/internal/chains"
)

func TestChainAndEndpoint_Defaults(t *testing.T) {
	opts := NewBuilder(testSigner(t)).Build()

	chain, endpoint := opts.ChainAndEndpoint()
	assert.False(t, chain.IsProduction())
	assert.Empty(t, chain.Name())
	assert.Equal(t, "ws://localhost:9944", endpoint)
}

func TestChainAndEndpoint_NamedChainWins(t *testing.T) {
	polkadot, ok := chains.Default.ByName("polkadot")
	require.True(t, ok)

	// The named chain overrides whatever URL is configured, even a
	// conflicting production endpoint of another chain.
	for _, rawURL := range []string{
		"ws://localhost:9944",
		"wss://rpc.astar.network:443",
		"wss://somewhere.else.example",
	} {
		opts := NewBuilder(testSigner(t)).
			WithNodeURL(mustURL(t, rawURL)).
			WithChain(&polkadot).
			Build()

		chain, endpoint := opts.ChainAndEndpoint()
		assert.True(t, chain.IsProduction())
		assert.Equal(t, "polkadot", chain.Name())
		assert.Equal(t, polkadot.Endpoint, endpoint)
	}
}

func TestChainAndEndpoint_URLMatchesProduction(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantChain    string
		wantEndpoint string
	}{
		{
			name:         "exact canonical endpoint",
			url:          "wss://rpc.polkadot.io",
			wantChain:    "polkadot",
			wantEndpoint: "wss://rpc.polkadot.io",
		},
		{
			name:         "trailing slash still recognized",
			url:          "wss://rpc.polkadot.io/",
			wantChain:    "polkadot",
			wantEndpoint: "wss://rpc.polkadot.io",
		},
		{
			name: "canonical endpoint substituted for recognizable address",
			url:  "wss://rpc.astar.network:443/",
			// The registered form with explicit port is returned, not the
			// user's variant.
			wantChain:    "astar",
			wantEndpoint: "wss://rpc.astar.network:443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewBuilder(testSigner(t)).
				WithNodeURL(mustURL(t, tt.url)).
				Build()

			chain, endpoint := opts.ChainAndEndpoint()
			assert.True(t, chain.IsProduction())
			assert.Equal(t, tt.wantChain, chain.Name())
			assert.Equal(t, tt.wantEndpoint, endpoint)
		})
	}
}

func TestChainAndEndpoint_CustomFallback(t *testing.T) {
	for _, rawURL := range []string{
		"ws://localhost:9944",
		"ws://127.0.0.1:9944",
		"wss://testnet.example:443",
	} {
		opts := NewBuilder(testSigner(t)).WithNodeURL(mustURL(t, rawURL)).Build()

		chain, endpoint := opts.ChainAndEndpoint()
		assert.False(t, chain.IsProduction(), rawURL)
		assert.Equal(t, opts.NodeURLString(), endpoint, rawURL)
	}
}

func TestChainAndEndpoint_ClearedChain(t *testing.T) {
	astar, ok := chains.Default.ByName("astar")
	require.True(t, ok)

	opts := NewBuilder(testSigner(t)).
		WithChain(&astar).
		WithChain(nil). // last write wins: selection cleared
		Build()

	chain, endpoint := opts.ChainAndEndpoint()
	assert.False(t, chain.IsProduction())
	assert.Equal(t, "ws://localhost:9944", endpoint)
}

func TestChainAndEndpoint_CustomRegistry(t *testing.T) {
	reg := chains.NewRegistry()
	opts := NewBuilder(testSigner(t)).
		WithRegistry(reg).
		WithNodeURL(mustURL(t, "wss://rpc.polkadot.io")).
		Build()

	chain, _ := opts.ChainAndEndpoint()
	assert.True(t, chain.IsProduction())

	// Resolution is recomputed per call against the registry's current
	// contents, never cached on the options value.
	chain2, endpoint := opts.ChainAndEndpoint()
	assert.Equal(t, chain, chain2)
	assert.Equal(t, "wss://rpc.polkadot.io", endpoint)
}

func TestChain_String(t *testing.T) {
	assert.Equal(t, "production chain astar", Production("astar").String())
	assert.Equal(t, "custom chain", Custom().String())
}
