// Package dns resolves the relay host for the player CLI, falling back to
// public resolvers when the system one is broken.
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	systemTimeout = 1 * time.Second
	raceTimeout   = 2 * time.Second
)

var ErrNoAddress = errors.New("no addresses found")

// Queried directly when the system resolver fails.
var publicResolvers = []string{
	"1.1.1.1",              // Cloudflare
	"1.0.0.1",              // Cloudflare
	"2606:4700:4700::1111", // Cloudflare
	"8.8.8.8",              // Google
	"8.8.4.4",              // Google
	"2001:4860:4860::8888", // Google
	"9.9.9.9",              // Quad9
	"149.112.112.112",      // Quad9
	"208.67.222.222",       // Cisco OpenDNS
}

// Lookup resolves host to a single address, preferring IPv4. IP literals are
// returned untouched.
func Lookup(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}

	sysCtx, cancel := context.WithTimeout(ctx, systemTimeout)
	ip, err := resolve(sysCtx, net.DefaultResolver, host)
	cancel()
	if err == nil {
		return ip, nil
	}

	return race(ctx, host)
}

// DialContext dials addr after resolving its host with Lookup. It fits
// websocket.Dialer.NetDialContext.
func DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ip, err := Lookup(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}

	var d net.Dialer
	return d.DialContext(ctx, network, net.JoinHostPort(ip, port))
}

// race asks every public resolver at once and takes the first answer.
func race(ctx context.Context, host string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, raceTimeout)
	defer cancel()

	results := make(chan result, len(publicResolvers))
	for _, server := range publicResolvers {
		go func() {
			ip, err := resolve(ctx, viaServer(server), host)
			results <- result{ip: ip, err: err}
		}()
	}

	failed := 0
	for range publicResolvers {
		select {
		case res := <-results:
			if res.err == nil {
				return res.ip, nil
			}
			failed++
		case <-ctx.Done():
			return "", fmt.Errorf("resolve %s: public resolvers timed out", host)
		}
	}

	return "", fmt.Errorf("resolve %s: all %d public resolvers failed", host, failed)
}

// viaServer returns a resolver pinned to one DNS server on port 53.
func viaServer(server string) *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, resolverAddr(server))
		},
	}
}

func resolverAddr(server string) string {
	return net.JoinHostPort(server, "53")
}

func resolve(ctx context.Context, r *net.Resolver, host string) (string, error) {
	addrs, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	return preferIPv4(addrs)
}

func preferIPv4(addrs []string) (string, error) {
	if len(addrs) == 0 {
		return "", ErrNoAddress
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a, nil
		}
	}
	return addrs[0], nil
}
