package extrinsic

import "fmt"

// Chain classifies the resolved target network.
type Chain struct {
	production bool
	name       string
}

// Production tags the target as a known production network.
func Production(name string) Chain {
	return Chain{production: true, name: name}
}

// Custom tags the target as an unrecognized network, e.g. a local node.
func Custom() Chain {
	return Chain{}
}

// IsProduction reports whether the target is a known production network.
func (c Chain) IsProduction() bool {
	return c.production
}

// Name returns the production chain name; empty for custom targets.
func (c Chain) Name() string {
	return c.name
}

func (c Chain) String() string {
	if c.production {
		return fmt.Sprintf("production chain %s", c.name)
	}
	return "custom chain"
}

// ChainAndEndpoint resolves the target network and the endpoint to submit
// to. The decision is total and recomputed on every call:
//
//  1. An explicitly named chain wins unconditionally; its canonical
//     endpoint is used and the configured node URL is ignored, even when
//     the two conflict.
//  2. Otherwise, a node URL matching a registered production endpoint
//     resolves to that chain, substituting the canonical endpoint so a
//     recognizable alternate address still gets canonical routing.
//  3. Anything else is a custom chain, addressed by the URL as given.
func (o Opts) ChainAndEndpoint() (Chain, string) {
	if o.chain != nil {
		return Production(o.chain.Name), o.chain.Endpoint
	}

	rendered := o.NodeURLString()
	if c, ok := o.registry.ByEndpoint(rendered); ok {
		return Production(c.Name), c.Endpoint
	}
	return Custom(), rendered
}
