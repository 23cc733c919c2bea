package models

import "time"

// Audit event actions
const (
	AuditActionVoteApproved     = "vote_approved"
	AuditActionVoteDenied       = "vote_denied"
	AuditActionClaimFinalized   = "claim_finalized"
	AuditActionClaimRejected    = "claim_rejected"
	AuditActionClaimReaped      = "claim_reaped"
	AuditActionCredentialIssued = "credential_issued"
)

// Decision is a node's local judgment on a claim.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionDeny    Decision = "DENY"
)

// Deny reasons. These are caller-visible strings: the orchestrator and the
// requester's client both branch on them, so they are stable constants rather
// than free-form messages.
const (
	ReasonMissingFields    = "missing required fields"
	ReasonDuplicateMarker  = "duplicate biometric"
	ReasonInvalidPublicKey = "invalid public key format"
	ReasonInternalError    = "internal error"
	ReasonQuorumNotReached = "quorum not reached"
	ReasonAlreadyStaged    = "claim already staged"
)

// Vote is one node's transient judgment on a claim. It is returned to the
// orchestrator and never persisted.
type Vote struct {
	NodeName string   `json:"nodeName"`
	Decision Decision `json:"vote"`
	Reason   string   `json:"reason,omitempty"`
}

// ClaimRecord is an in-flight claim staged after a local APPROVE vote,
// awaiting the orchestrator's quorum verdict. It is held exclusively by the
// pending store until consumed exactly once by finalize or reaped after TTL.
type ClaimRecord struct {
	ClaimID            string    `json:"claimId"`
	RequesterPublicKey string    `json:"requesterPublicKey"`
	BiometricMarker    string    `json:"biometricMarker"`
	StagedAt           time.Time `json:"stagedAt"`
}

// CredentialFragment is this node's share of a quorum credential: a signature
// over the requester's public key, plus the issuer key needed to verify it.
type CredentialFragment struct {
	NodeName        string `json:"nodeName"`
	Signature       string `json:"signature"`
	IssuerPublicKey string `json:"issuerPublicKey"`
}

// FinalizeResult is the outcome of a finalize call for a staged claim.
// Success carries the credential fragment; failure carries the reason.
type FinalizeResult struct {
	Success  bool                `json:"success"`
	Reason   string              `json:"reason,omitempty"`
	Fragment *CredentialFragment `json:"fragment,omitempty"`
}

// StatusResponse reports this node's identity label and how many identities
// it has committed to its uniqueness ledger.
type StatusResponse struct {
	NodeName      string `json:"nodeName"`
	VerifiedCount int    `json:"verifiedCount"`
	PendingCount  int    `json:"pendingCount"`
}

// IdentityResponse exposes the node's public identity.
type IdentityResponse struct {
	NodeName  string `json:"nodeName"`
	PublicKey string `json:"publicKey"`
}
