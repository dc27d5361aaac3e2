package cli

import (
	"io"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/inkctl/internal/config"
	"github.com/pendergraft/inkctl/internal/extrinsic"
)

// resetFlags restores the package-level flag state between tests.
func resetFlags(t *testing.T) {
	t.Helper()
	origCfg, origURL, origChain, origChains := cfgFile, nodeURL, chainName, chainsFile
	origVerbose, origQuiet := verbose, quiet
	t.Cleanup(func() {
		cfgFile, nodeURL, chainName, chainsFile = origCfg, origURL, origChain, origChains
		verbose, quiet = origVerbose, origQuiet
	})
	// Run from an empty directory so no inkctl.toml is picked up
	t.Chdir(t.TempDir())
	cfgFile = ""
	nodeURL, chainName, chainsFile = "", "", ""
	verbose, quiet = false, false
	for _, key := range []string{"INKCTL_URL", "INKCTL_CHAIN", "INKCTL_SURI", "INKCTL_KEYFILE", "INKCTL_DATABASE_URL", "INKCTL_HISTORY", "INKCTL_CHAINS_FILE"} {
		t.Setenv(key, "")
	}
}

func TestParseBalance(t *testing.T) {
	v, err := parseBalance("340282366920938463463374607431768211455")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cmp(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))))

	for _, bad := range []string{"", "-1", "1.5", "0x10", "ten"} {
		_, err := parseBalance(bad)
		assert.Error(t, err, "parseBalance(%q)", bad)
	}

	v, err = parseOptionalBalance("")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParseHex(t *testing.T) {
	b, err := parseHex("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)

	b, err = parseHex("cafe")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, b)

	b, err = parseHex("")
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = parseHex("0xzz")
	assert.Error(t, err)
}

func TestParseHash(t *testing.T) {
	raw := "0x" + "ab"
	_, err := parseHash(raw)
	assert.Error(t, err, "short input must be rejected")

	full := "0x" + "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	h, err := parseHash(full)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), h[0])
	assert.Equal(t, byte(0xff), h[31])
}

func TestResolveSignerPrecedence(t *testing.T) {
	cfg := &config.Config{}
	cfg.Signer.SURI = "//Bob"

	// Config SURI applies when no flags are set
	sg, err := resolveSigner(nil, cfg)
	require.NoError(t, err)
	require.NotNil(t, sg)
	bob := sg.AccountID()

	// Flag SURI beats config
	sg, err = resolveSigner(&submitFlags{suri: "//Alice"}, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, bob, sg.AccountID())

	// No signer configured at all is fine
	sg, err = resolveSigner(&submitFlags{}, &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, sg)
}

func TestNewSessionURLResolution(t *testing.T) {
	resetFlags(t)

	s, err := newSession(nil, "", "")
	require.NoError(t, err)
	ch, endpoint := s.opts.ChainAndEndpoint()
	assert.False(t, ch.IsProduction())
	assert.Equal(t, extrinsic.DefaultNodeURL, endpoint)

	nodeURL = "wss://rpc.polkadot.io"
	s, err = newSession(nil, "", "")
	require.NoError(t, err)
	ch, endpoint = s.opts.ChainAndEndpoint()
	assert.True(t, ch.IsProduction())
	assert.Equal(t, "polkadot", ch.Name())

	nodeURL = "not a url"
	_, err = newSession(nil, "", "")
	assert.ErrorIs(t, err, extrinsic.ErrInvalidURL)
}

func TestNewSessionChainResolution(t *testing.T) {
	resetFlags(t)

	chainName = "astar"
	s, err := newSession(nil, "", "")
	require.NoError(t, err)
	ch, endpoint := s.opts.ChainAndEndpoint()
	assert.Equal(t, "astar", ch.Name())
	assert.Equal(t, "wss://rpc.astar.network:443", endpoint)

	chainName = "no-such-chain"
	_, err = newSession(nil, "", "")
	assert.ErrorContains(t, err, "unknown chain")
	// The error names the chains the registry does know
	assert.ErrorContains(t, err, "polkadot")
}

func TestNewSessionConfigFile(t *testing.T) {
	resetFlags(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "inkctl.toml")
	require.NoError(t, os.WriteFile(path, []byte("[node]\nchain = \"kusama\"\n"), 0644))
	cfgFile = path

	s, err := newSession(nil, "", "")
	require.NoError(t, err)
	ch, _ := s.opts.ChainAndEndpoint()
	assert.Equal(t, "kusama", ch.Name())

	// The --chain flag beats the config file
	chainName = "polkadot"
	s, err = newSession(nil, "", "")
	require.NoError(t, err)
	ch, _ = s.opts.ChainAndEndpoint()
	assert.Equal(t, "polkadot", ch.Name())
}

func TestNewSessionDepositLimit(t *testing.T) {
	resetFlags(t)

	f := &submitFlags{depositLimit: "1000"}
	s, err := newSession(f, "", "")
	require.NoError(t, err)
	require.NotNil(t, s.opts.StorageDepositLimit())
	assert.Equal(t, int64(1000), s.opts.StorageDepositLimit().Int64())

	_, err = newSession(&submitFlags{depositLimit: "-5"}, "", "")
	assert.ErrorContains(t, err, "storage-deposit-limit")

	f = &submitFlags{tip: "notanumber"}
	_, err = newSession(f, "", "")
	assert.ErrorContains(t, err, "tip")
}

func TestNewSessionVerbosityConflict(t *testing.T) {
	resetFlags(t)
	verbose, quiet = true, true
	_, err := newSession(nil, "", "")
	assert.Error(t, err)
}

func TestSessionPrintfQuiet(t *testing.T) {
	capture := func(s *session) string {
		t.Helper()
		old := os.Stdout
		r, w, err := os.Pipe()
		require.NoError(t, err)
		os.Stdout = w
		s.printf("Code hash 0x%s\n", "abcd")
		require.NoError(t, w.Close())
		os.Stdout = old
		out, err := io.ReadAll(r)
		require.NoError(t, err)
		return string(out)
	}

	assert.Empty(t, capture(&session{verbosity: extrinsic.VerbosityQuiet}))
	assert.Contains(t, capture(&session{verbosity: extrinsic.VerbosityDefault}), "Code hash")
}

func TestShort(t *testing.T) {
	assert.Equal(t, "0xabc", short("0xabc"))
	assert.Equal(t, "0x00112233..", short("0x00112233445566778899"))
}
