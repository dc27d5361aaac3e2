package artifacts

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

// writeBundle writes a minimal .contract bundle and returns its path.
func writeBundle(t *testing.T, dir, name string, wasm []byte, verifiable bool) string {
	t.Helper()

	hash := blake2b.Sum256(wasm)
	bundle := map[string]any{
		"source": map[string]any{
			"hash":     "0x" + hex.EncodeToString(hash[:]),
			"wasm":     "0x" + hex.EncodeToString(wasm),
			"language": "ink! 4.3.0",
			"compiler": "rustc 1.75.0",
		},
		"contract": map[string]any{
			"name":    name,
			"version": "0.1.0",
		},
	}
	if verifiable {
		bundle["source"].(map[string]any)["build_info"] = map[string]any{
			"build_mode":     "Release",
			"image":          "paritytech/contracts-verifiable:4.3.0",
			"rust_toolchain": "stable-1.75.0",
		}
	}

	data, err := json.Marshal(bundle)
	require.NoError(t, err)
	path := filepath.Join(dir, name+".contract")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_BundleFile(t *testing.T) {
	dir := t.TempDir()
	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	path := writeBundle(t, dir, "flipper", wasm, false)

	a, err := Load("", path)
	require.NoError(t, err)

	assert.Equal(t, "flipper", a.Name)
	assert.Equal(t, "0.1.0", a.Version)
	assert.Equal(t, wasm, a.Wasm)
	assert.Equal(t, "v4.3.0", a.LanguageVersion())
	assert.False(t, a.Verifiable())

	hash, err := a.CodeHash()
	require.NoError(t, err)
	expected := blake2b.Sum256(wasm)
	assert.Equal(t, expected[:], hash)
	assert.NoError(t, a.VerifyLocal())
}

func TestLoad_FromManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"),
		[]byte("[package]\nname = \"my-flipper\"\n"), 0o644))

	inkDir := filepath.Join(dir, "target", "ink")
	require.NoError(t, os.MkdirAll(inkDir, 0o755))
	// Hyphens in the package name become underscores in the output file.
	writeBundle(t, inkDir, "my_flipper", []byte{0x00, 0x61, 0x73, 0x6d}, true)

	a, err := Load(filepath.Join(dir, "Cargo.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, "my_flipper", a.Name)
	assert.True(t, a.Verifiable())
	assert.Equal(t, "paritytech/contracts-verifiable:4.3.0", a.BuildImage())
}

func TestLoad_ManifestMissingBuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"),
		[]byte("[package]\nname = \"flipper\"\n"), 0o644))

	_, err := Load(filepath.Join(dir, "Cargo.toml"), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_Ambiguous(t *testing.T) {
	_, err := Load("Cargo.toml", "flipper.contract")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	badJSON := filepath.Join(dir, "broken.contract")
	require.NoError(t, os.WriteFile(badJSON, []byte("{not json"), 0o644))

	badManifest := filepath.Join(dir, "Cargo.toml")
	require.NoError(t, os.WriteFile(badManifest, []byte("newline = = broken"), 0o644))

	tests := []struct {
		name     string
		manifest string
		file     string
		want     error
	}{
		{name: "missing bundle", file: filepath.Join(dir, "nope.contract"), want: ErrNotFound},
		{name: "missing manifest", manifest: filepath.Join(dir, "sub", "Cargo.toml"), want: ErrNotFound},
		{name: "unparseable bundle", file: badJSON, want: ErrParse},
		{name: "unparseable manifest", manifest: badManifest, want: ErrParse},
		{name: "unknown extension", file: filepath.Join(dir, "code.so"), want: ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.manifest, tt.file)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_WasmWithSiblingMetadata(t *testing.T) {
	dir := t.TempDir()
	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	wasmPath := filepath.Join(dir, "flipper.wasm")
	require.NoError(t, os.WriteFile(wasmPath, wasm, 0o644))

	// Without metadata the load still succeeds, named after the file.
	a, err := Load("", wasmPath)
	require.NoError(t, err)
	assert.Equal(t, "flipper", a.Name)
	assert.Empty(t, a.Version)

	// With a sibling metadata file the bundle fields are filled in.
	hash := blake2b.Sum256(wasm)
	meta := fmt.Sprintf(`{"source":{"hash":"0x%x","language":"ink! 5.0.0"},"contract":{"name":"flipper","version":"1.2.3"}}`, hash[:])
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flipper.json"), []byte(meta), 0o644))

	a, err = Load("", wasmPath)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", a.Version)
	assert.Equal(t, hash[:], a.SourceHash)
	assert.NoError(t, a.VerifyLocal())
}

func TestVerifyLocal_Mismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir, "flipper", []byte{0x00, 0x61, 0x73, 0x6d}, false)

	a, err := Load("", path)
	require.NoError(t, err)

	a.Wasm = append(a.Wasm, 0xff) // corrupt the code
	assert.ErrorContains(t, a.VerifyLocal(), "code hash mismatch")
}

func TestCodeHash_NoCode(t *testing.T) {
	a := &Artifacts{}
	_, err := a.CodeHash()
	assert.ErrorIs(t, err, ErrNoCode)
}
