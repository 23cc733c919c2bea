// Package peers holds this node's static view of the validator mesh. The
// directory carries no consensus logic: it exists so an operator or the
// orchestrator can ask one node which peers it can currently reach.
package peers

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Peer is one remote validator node descriptor.
type Peer struct {
	NodeName string `json:"nodeName"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

// Addr returns the host:port dial address for the peer.
func (p Peer) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// ParseDirectory parses a comma-separated list of name@host:port entries.
// An empty input yields an empty directory; a malformed entry is an error so
// a typo in deployment config fails at startup rather than at probe time.
func ParseDirectory(raw string) ([]Peer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var directory []Peer
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, addr, ok := strings.Cut(entry, "@")
		if !ok || name == "" {
			return nil, fmt.Errorf("peer entry %q: want name@host:port", entry)
		}
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("peer entry %q: %w", entry, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("peer entry %q: invalid port %q", entry, portStr)
		}
		directory = append(directory, Peer{NodeName: name, Host: host, Port: port})
	}
	return directory, nil
}
