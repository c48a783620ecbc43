package resolver

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// DNS asks a single nameserver for A records instead of going through the
// system resolver.
type DNS struct {
	// Server is the nameserver, as host:port.
	Server string
	Client *dns.Client
}

func (d DNS) Resolve(ctx context.Context, host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("%w: empty hostname", ErrNotFound)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	c := d.Client
	if c == nil {
		c = new(dns.Client)
	}
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	resp, _, err := c.ExchangeContext(ctx, msg, d.Server)
	if err != nil {
		return "", fmt.Errorf("query %s at %s: %w", host, d.Server, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("%w for %s: %s", ErrNotFound, host, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", fmt.Errorf("%w for %s", ErrNotFound, host)
}
