package peers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Peer reachability states as reported by /peers.
const (
	StateReachable   = "reachable"
	StateUnreachable = "unreachable"
)

// Status is one peer's reachability as observed by the most recent probe.
type Status struct {
	Peer
	State string `json:"state"`
}

// Prober checks peer liveness with a bounded per-probe timeout. An
// unreachable peer is a reported state, never an error: the caller is asking
// for this node's view of the mesh, not for the mesh to be healthy.
type Prober struct {
	directory []Peer
	client    *http.Client
	timeout   time.Duration
	logger    *slog.Logger
}

type ProberOption func(*Prober)

// WithProbeTimeout bounds each individual liveness probe.
func WithProbeTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithProberLogger sets the logger for probe failures.
func WithProberLogger(logger *slog.Logger) ProberOption {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithHTTPClient replaces the probe client, for tests.
func WithHTTPClient(client *http.Client) ProberOption {
	return func(p *Prober) {
		if client != nil {
			p.client = client
		}
	}
}

func NewProber(directory []Peer, opts ...ProberOption) *Prober {
	p := &Prober{
		directory: directory,
		client:    &http.Client{},
		timeout:   2 * time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Directory returns the static peer list.
func (p *Prober) Directory() []Peer {
	return p.directory
}

// Probe checks all peers concurrently and reports their reachability in
// directory order.
func (p *Prober) Probe(ctx context.Context) []Status {
	statuses := make([]Status, len(p.directory))

	g, ctx := errgroup.WithContext(ctx)
	for i, peer := range p.directory {
		g.Go(func() error {
			statuses[i] = Status{Peer: peer, State: p.probeOne(ctx, peer)}
			return nil
		})
	}
	_ = g.Wait()

	return statuses
}

func (p *Prober) probeOne(ctx context.Context, peer Peer) string {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/health/live", peer.Addr())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StateUnreachable
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("peer probe failed", "peer", peer.NodeName, "error", err)
		return StateUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StateUnreachable
	}
	return StateReachable
}
