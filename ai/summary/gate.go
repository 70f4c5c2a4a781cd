package summary

import "context"

// IndexGate is consulted right before a summarized ticket is indexed. A non-nil
// error aborts the request and nothing is stored.
type IndexGate func(ctx context.Context) error

type indexGateKey struct{}

// WithIndexGate attaches gate to ctx for the next Summarize call.
func WithIndexGate(ctx context.Context, gate IndexGate) context.Context {
	return context.WithValue(ctx, indexGateKey{}, gate)
}

func indexGateFrom(ctx context.Context) IndexGate {
	gate, _ := ctx.Value(indexGateKey{}).(IndexGate)
	return gate
}
