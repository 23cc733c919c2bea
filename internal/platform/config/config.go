package config

import (
	"os"
	"time"
)

// Node captures process-level configuration for a single validator node.
// Everything here is an identity label or an operational knob, never a secret.
type Node struct {
	Addr     string
	NodeName string
	DataDir  string

	// Pending claim lifecycle.
	PendingTTL    time.Duration
	SweepInterval time.Duration
	RestagePolicy RestagePolicy

	// Backends. Empty URL means the file/memory default is used.
	LedgerBackend string // "file" or "postgres"
	DatabaseURL   string
	RedisURL      string

	// Audit trail.
	KafkaBrokers string
	AuditTopic   string

	// Peer mesh.
	Peers        string // comma-separated name@host:port entries
	ProbeTimeout time.Duration
}

// RestagePolicy controls what happens when a vote stages a claim ID that is
// already staged. allow overwrites the prior record; reject treats the reuse
// as a protocol violation and denies the vote.
type RestagePolicy string

const (
	RestageAllow  RestagePolicy = "allow"
	RestageReject RestagePolicy = "reject"
)

// FromEnv builds a Node config from environment variables so main stays lean.
func FromEnv() Node {
	cfg := Node{
		Addr:          envOr("VERINODE_ADDR", ":8080"),
		NodeName:      envOr("VERINODE_NAME", "verinode"),
		DataDir:       envOr("VERINODE_DATA_DIR", "./data"),
		PendingTTL:    durationOr("VERINODE_PENDING_TTL", 10*time.Minute),
		SweepInterval: durationOr("VERINODE_SWEEP_INTERVAL", time.Minute),
		RestagePolicy: RestageAllow,
		LedgerBackend: envOr("VERINODE_LEDGER_BACKEND", "file"),
		DatabaseURL:   os.Getenv("VERINODE_DATABASE_URL"),
		RedisURL:      os.Getenv("VERINODE_REDIS_URL"),
		KafkaBrokers:  os.Getenv("VERINODE_KAFKA_BROKERS"),
		AuditTopic:    envOr("VERINODE_AUDIT_TOPIC", "verinode.audit"),
		Peers:         os.Getenv("VERINODE_PEERS"),
		ProbeTimeout:  durationOr("VERINODE_PROBE_TIMEOUT", 2*time.Second),
	}
	if os.Getenv("VERINODE_RESTAGE_POLICY") == string(RestageReject) {
		cfg.RestagePolicy = RestageReject
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
