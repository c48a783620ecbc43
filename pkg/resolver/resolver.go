// Package resolver turns worker hostnames into numeric addresses.
//
// The config parser only depends on the Resolver interface, so the lookup
// strategy can be swapped without touching parsing.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var ErrNotFound = errors.New("no address found")

type Resolver interface {
	// Resolve returns the numeric address for host. Blocking.
	Resolve(ctx context.Context, host string) (string, error)
}

// Func adapts a plain function to a Resolver.
type Func func(ctx context.Context, host string) (string, error)

func (f Func) Resolve(ctx context.Context, host string) (string, error) {
	return f(ctx, host)
}

// Passthrough returns every host unchanged.
var Passthrough Resolver = Func(func(_ context.Context, host string) (string, error) {
	return host, nil
})

// System resolves through the operating system, keeping the first IPv4
// address like gethostbyname does.
type System struct {
	// Resolver defaults to net.DefaultResolver
	Resolver *net.Resolver
}

func (s System) Resolve(ctx context.Context, host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("%w: empty hostname", ErrNotFound)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	r := s.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", host, err)
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("%w for %s", ErrNotFound, host)
	}
	return ips[0].String(), nil
}
