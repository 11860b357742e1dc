package gateway

import (
	"context"
	"fmt"
	"strings"
)

// Registry maps gateway identifiers to adapters, resolved once at startup.
// Unknown identifiers resolve to a null adapter that always fails with a
// descriptive error, so the engine can record a clean FAILED state for any
// gateway, known or not.
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	items := make(map[string]Gateway, len(gateways))
	for _, g := range gateways {
		items[strings.ToUpper(g.Name())] = g
	}
	return &Registry{gateways: items}
}

func (r *Registry) Get(name string) Gateway {
	if g, ok := r.gateways[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return g
	}
	return &nullGateway{name: strings.TrimSpace(name)}
}

type nullGateway struct {
	name string
}

func (g *nullGateway) Name() string {
	return g.name
}

func (g *nullGateway) ProcessRefund(context.Context, *RefundInput) (*RefundOutput, error) {
	return nil, fmt.Errorf("unsupported payment gateway %q for refund", g.name)
}
