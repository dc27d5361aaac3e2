// Package extrinsic assembles the options needed to build and submit a
// contract extrinsic: artifact location, target node, signing identity and
// spending limits. It also decides whether the target is a known
// production chain or a custom node.
package extrinsic

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"

	"github.com/pendergraft/inkctl/internal/artifacts"
	"github.com/pendergraft/inkctl/internal/chains"
	"github.com/pendergraft/inkctl/internal/signer"
)

// DefaultNodeURL is the local development endpoint assumed when no node
// URL is configured.
const DefaultNodeURL = "ws://localhost:9944"

// ErrInvalidURL is returned when a node URL cannot be parsed.
var ErrInvalidURL = errors.New("invalid node URL")

// Opts holds the finished, immutable configuration for submitting a
// contract extrinsic. Build one with a Builder; afterwards it is
// read-only and safe for concurrent use.
type Opts struct {
	artifactFile        string
	manifestPath        string
	nodeURL             *url.URL
	signer              signer.Signer
	storageDepositLimit *big.Int
	verbosity           Verbosity
	chain               *chains.Chain
	registry            *chains.Registry
}

// Builder assembles an Opts value. Setters return an updated copy, so a
// builder can be passed around by value; the last call to a setter wins.
type Builder struct {
	opts Opts
}

// NewBuilder returns a builder with all optional fields unset. The signer
// is required; the node URL defaults to the local development endpoint.
func NewBuilder(s signer.Signer) Builder {
	u, err := url.Parse(DefaultNodeURL)
	if err != nil {
		// The default is a constant; a parse failure is a programming error.
		panic(fmt.Sprintf("parsing default node URL: %v", err))
	}
	return Builder{
		opts: Opts{
			nodeURL:   u,
			signer:    s,
			verbosity: VerbosityDefault,
			registry:  chains.Default,
		},
	}
}

// ParseURL converts a raw string into a node URL, failing with
// ErrInvalidURL when it is not parseable or lacks a scheme.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing scheme or host", ErrInvalidURL, raw)
	}
	return u, nil
}

// WithArtifactFile sets the path to a compiled contract bundle. An empty
// path leaves the field unset.
func (b Builder) WithArtifactFile(path string) Builder {
	b.opts.artifactFile = path
	return b
}

// WithManifestPath sets the path to the contract's build manifest.
func (b Builder) WithManifestPath(path string) Builder {
	b.opts.manifestPath = path
	return b
}

// WithNodeURL sets the node URL. Use ParseURL to obtain one from user
// input; malformed input fails there, at the point of conversion.
func (b Builder) WithNodeURL(u *url.URL) Builder {
	if u != nil {
		b.opts.nodeURL = u
	}
	return b
}

// WithStorageDepositLimit caps the balance the signer authorizes to be
// charged for on-chain storage. nil means no limit.
func (b Builder) WithStorageDepositLimit(limit *big.Int) Builder {
	if limit == nil {
		b.opts.storageDepositLimit = nil
	} else {
		b.opts.storageDepositLimit = new(big.Int).Set(limit)
	}
	return b
}

// WithVerbosity sets the reporting level.
func (b Builder) WithVerbosity(v Verbosity) Builder {
	b.opts.verbosity = v
	return b
}

// WithChain pins the target to a named production chain. nil clears the
// selection. An explicitly chosen chain always wins over the node URL
// during resolution.
func (b Builder) WithChain(c *chains.Chain) Builder {
	if c == nil {
		b.opts.chain = nil
	} else {
		cc := *c
		b.opts.chain = &cc
	}
	return b
}

// WithRegistry replaces the production-chain registry used for endpoint
// resolution. The default is the built-in table.
func (b Builder) WithRegistry(r *chains.Registry) Builder {
	if r != nil {
		b.opts.registry = r
	}
	return b
}

// Build finalizes the options. The builder never rejects an incomplete
// combination; leaving both artifact file and manifest path unset is
// legal and resolved later by the artifact loader.
func (b Builder) Build() Opts {
	return b.opts
}

// ArtifactFile returns the configured contract bundle path, if any.
func (o Opts) ArtifactFile() string {
	return o.artifactFile
}

// ManifestPath returns the configured build manifest path, if any.
func (o Opts) ManifestPath() string {
	return o.manifestPath
}

// Signer returns the signing identity.
func (o Opts) Signer() signer.Signer {
	return o.signer
}

// StorageDepositLimit returns the configured storage deposit cap, or nil
// when unlimited. The caller receives a copy.
func (o Opts) StorageDepositLimit() *big.Int {
	if o.storageDepositLimit == nil {
		return nil
	}
	return new(big.Int).Set(o.storageDepositLimit)
}

// Verbosity returns the reporting level.
func (o Opts) Verbosity() Verbosity {
	return o.verbosity
}

// NodeURLString renders the node URL in its canonical string form: a
// bare authority keeps no trailing slash, so the rendering is stable for
// endpoint matching.
func (o Opts) NodeURLString() string {
	s := o.nodeURL.String()
	if (o.nodeURL.Path == "" || o.nodeURL.Path == "/") && o.nodeURL.RawQuery == "" {
		s = stripTrailingSlash(s)
	}
	return s
}

// LoadArtifacts loads the contract bundle from the configured manifest
// path or artifact file. Nothing is cached; each call re-reads.
func (o Opts) LoadArtifacts() (*artifacts.Artifacts, error) {
	return artifacts.Load(o.manifestPath, o.artifactFile)
}

// IsVerifiable reports whether the configured bundle was built
// reproducibly. It fails exactly when LoadArtifacts fails.
func (o Opts) IsVerifiable() (bool, error) {
	a, err := o.LoadArtifacts()
	if err != nil {
		return false, err
	}
	return a.Verifiable(), nil
}

func stripTrailingSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}
