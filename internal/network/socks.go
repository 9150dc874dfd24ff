// Package network builds the optional SOCKS5 dialers used by the network
// heartbeat publishers.
package network

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/proxy"

	"workerservice/internal/config"
)

// Enabled reports whether a proxy is configured.
func Enabled(cfg config.SOCKSConfig) bool {
	return cfg.Host != "" && cfg.Port > 0
}

// NewSOCKS5Dialer creates a SOCKS5 proxy dialer.
func NewSOCKS5Dialer(cfg config.SOCKSConfig) (proxy.Dialer, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", addr, err)
	}
	return dialer, nil
}

// ContextDialFunc returns a dial function routed through the proxy, or nil
// when no proxy is configured.
func ContextDialFunc(cfg config.SOCKSConfig) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	if !Enabled(cfg) {
		return nil, nil
	}
	dialer, err := NewSOCKS5Dialer(cfg)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}, nil
}
