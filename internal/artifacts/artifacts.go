// Package artifacts loads compiled contract bundles. A bundle is the
// `.contract` JSON file produced by a contract build: wasm code plus ink!
// metadata. The loader also accepts a bare `.wasm` or `metadata.json` path
// and finds the missing half next to it.
package artifacts

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/semver"
)

var (
	// ErrNotFound means no artifact could be located from the given inputs.
	ErrNotFound = errors.New("contract artifact not found")
	// ErrParse means an artifact file exists but could not be decoded.
	ErrParse = errors.New("contract artifact could not be parsed")
	// ErrAmbiguous means both a manifest path and an artifact file were
	// given; the caller must pick one.
	ErrAmbiguous = errors.New("both manifest path and artifact file given")
	// ErrNoCode means the artifact carries metadata but no wasm code.
	ErrNoCode = errors.New("artifact contains no contract code")
)

// Artifacts is a loaded contract bundle.
type Artifacts struct {
	// Path is the file the bundle was loaded from.
	Path string
	// Name and Version come from the bundle's contract section.
	Name    string
	Version string
	// Language and Compiler describe the toolchain that produced the code.
	Language string
	Compiler string
	// Wasm is the contract code; may be empty for metadata-only loads.
	Wasm []byte
	// SourceHash is the code hash declared by the bundle.
	SourceHash []byte
	// Metadata is the raw metadata document, kept verbatim for display.
	Metadata json.RawMessage

	buildInfo *buildInfo
}

type bundle struct {
	Source struct {
		Hash      string     `json:"hash"`
		Wasm      string     `json:"wasm"`
		Language  string     `json:"language"`
		Compiler  string     `json:"compiler"`
		BuildInfo *buildInfo `json:"build_info"`
	} `json:"source"`
	Contract struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"contract"`
	Version json.RawMessage `json:"version"`
}

// buildInfo is present when the bundle was built reproducibly.
type buildInfo struct {
	BuildMode       string          `json:"build_mode"`
	Image           string          `json:"image"`
	RustToolchain   string          `json:"rust_toolchain"`
	WasmOptSettings json.RawMessage `json:"wasm_opt_settings"`
}

type manifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// Load resolves a contract bundle from a manifest path or an explicit
// artifact file. Exactly one of the two may be set; with neither set the
// manifest defaults to ./Cargo.toml.
func Load(manifestPath, artifactFile string) (*Artifacts, error) {
	if manifestPath != "" && artifactFile != "" {
		return nil, ErrAmbiguous
	}

	if artifactFile != "" {
		return loadFile(artifactFile)
	}

	if manifestPath == "" {
		manifestPath = "Cargo.toml"
	}
	path, err := bundleFromManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return loadFile(path)
}

// bundleFromManifest reads the contract name from the manifest and points
// at the conventional build output, target/ink/<name>.contract.
func bundleFromManifest(manifestPath string) (string, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: manifest %s does not exist", ErrNotFound, manifestPath)
		}
		return "", fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return "", fmt.Errorf("%w: manifest %s: %v", ErrParse, manifestPath, err)
	}
	if m.Package.Name == "" {
		return "", fmt.Errorf("%w: manifest %s has no package name", ErrParse, manifestPath)
	}

	name := strings.ReplaceAll(m.Package.Name, "-", "_")
	path := filepath.Join(filepath.Dir(manifestPath), "target", "ink", name+".contract")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s (build the contract first)", ErrNotFound, path)
	}
	return path, nil
}

func loadFile(path string) (*Artifacts, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".contract", ".json":
		return loadBundle(path)
	case ".wasm":
		return loadWasmWithSiblingMetadata(path)
	default:
		return nil, fmt.Errorf("%w: unsupported artifact extension %q", ErrParse, filepath.Ext(path))
	}
}

func loadBundle(path string) (*Artifacts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	var b bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}

	a := &Artifacts{
		Path:      path,
		Name:      b.Contract.Name,
		Version:   b.Contract.Version,
		Language:  b.Source.Language,
		Compiler:  b.Source.Compiler,
		Metadata:  data,
		buildInfo: b.Source.BuildInfo,
	}

	if b.Source.Wasm != "" {
		wasm, err := hex.DecodeString(strings.TrimPrefix(b.Source.Wasm, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: wasm field is not hex", ErrParse, path)
		}
		a.Wasm = wasm
	}
	if b.Source.Hash != "" {
		hash, err := hex.DecodeString(strings.TrimPrefix(b.Source.Hash, "0x"))
		if err != nil || len(hash) != 32 {
			return nil, fmt.Errorf("%w: %s: bad source hash", ErrParse, path)
		}
		a.SourceHash = hash
	}
	return a, nil
}

// loadWasmWithSiblingMetadata loads raw code and, when present, the
// metadata document built next to it.
func loadWasmWithSiblingMetadata(path string) (*Artifacts, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	a := &Artifacts{
		Path: path,
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Wasm: wasm,
	}

	metaPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	if meta, err := loadBundle(metaPath); err == nil {
		a.Name = meta.Name
		a.Version = meta.Version
		a.Language = meta.Language
		a.Compiler = meta.Compiler
		a.SourceHash = meta.SourceHash
		a.Metadata = meta.Metadata
		a.buildInfo = meta.buildInfo
	}
	return a, nil
}

// CodeHash returns the blake2b-256 hash of the contract code, falling back
// to the declared source hash for metadata-only bundles.
func (a *Artifacts) CodeHash() ([]byte, error) {
	if len(a.Wasm) > 0 {
		sum := blake2b.Sum256(a.Wasm)
		return sum[:], nil
	}
	if len(a.SourceHash) == 32 {
		return a.SourceHash, nil
	}
	return nil, ErrNoCode
}

// Verifiable reports whether the bundle was produced by a reproducible
// build, i.e. its build_info names the build image.
func (a *Artifacts) Verifiable() bool {
	return a.buildInfo != nil && a.buildInfo.Image != ""
}

// BuildImage returns the reproducible build image, if any.
func (a *Artifacts) BuildImage() string {
	if a.buildInfo == nil {
		return ""
	}
	return a.buildInfo.Image
}

// VerifyLocal recomputes the code hash and compares it to the hash
// declared by the bundle.
func (a *Artifacts) VerifyLocal() error {
	if len(a.Wasm) == 0 {
		return ErrNoCode
	}
	if len(a.SourceHash) != 32 {
		return fmt.Errorf("%w: bundle declares no source hash", ErrParse)
	}
	sum := blake2b.Sum256(a.Wasm)
	if !bytes.Equal(sum[:], a.SourceHash) {
		return fmt.Errorf("code hash mismatch: computed 0x%x, bundle declares 0x%x", sum[:8], a.SourceHash[:8])
	}
	return nil
}

// LanguageVersion extracts the semver part of the language string
// ("ink! 4.3.0" -> "v4.3.0"); empty when unknown.
func (a *Artifacts) LanguageVersion() string {
	fields := strings.Fields(a.Language)
	if len(fields) == 0 {
		return ""
	}
	v := "v" + strings.TrimPrefix(fields[len(fields)-1], "v")
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
