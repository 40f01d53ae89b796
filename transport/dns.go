package transport

import (
	"context"
	"fmt"
	"net"
)

// StdResolver implements mqtt.Resolver over net.Resolver.
type StdResolver struct {
	resolver *net.Resolver
}

// NewStdResolver returns a resolver backed by the standard library's
// default resolver.
func NewStdResolver() *StdResolver {
	return &StdResolver{resolver: net.DefaultResolver}
}

// ResolveHostname looks up the first IPv4 address for host.
func (r *StdResolver) ResolveHostname(host string) (net.IP, error) {
	ips, err := r.resolver.LookupIP(context.Background(), "ip4", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("transport: no A records for %s", host)
	}
	return ips[0], nil
}

// ResolveAddr performs the reverse lookup used for SNI when the broker was
// configured by IP literal.
func (r *StdResolver) ResolveAddr(ip net.IP) (string, error) {
	names, err := r.resolver.LookupAddr(context.Background(), ip.String())
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("transport: no PTR record for %s", ip)
	}
	return names[0], nil
}
