package models

import (
	"fmt"
	"strings"

	"verinode/internal/sentinel"
)

// VoteRequest is a requester's claim submission.
type VoteRequest struct {
	ClaimID            string `json:"claimId"`
	RequesterPublicKey string `json:"requesterPublicKey"`
	BiometricMarker    string `json:"biometricMarker"`
}

// Normalize applies business defaults and sanitizes inputs.
func (r *VoteRequest) Normalize() {
	if r == nil {
		return
	}
	r.ClaimID = strings.TrimSpace(r.ClaimID)
	r.RequesterPublicKey = strings.TrimSpace(r.RequesterPublicKey)
	r.BiometricMarker = strings.TrimSpace(r.BiometricMarker)
}

// Complete reports whether all required fields are present. Field absence is
// a DENY vote, not a request error, so this is a predicate rather than a
// Validate method: the vote path must never reject at the transport layer.
func (r *VoteRequest) Complete() bool {
	if r == nil {
		return false
	}
	return r.ClaimID != "" && r.RequesterPublicKey != "" && r.BiometricMarker != ""
}

// FinalizeRequest carries the orchestrator's quorum verdict for a staged
// claim. Votes are informational for audit; this node does not re-verify them.
type FinalizeRequest struct {
	ClaimID       string `json:"claimId"`
	QuorumReached bool   `json:"quorumReached"`
	Votes         []Vote `json:"votes,omitempty"`
}

// Normalize applies business defaults and sanitizes inputs.
func (r *FinalizeRequest) Normalize() {
	if r == nil {
		return
	}
	r.ClaimID = strings.TrimSpace(r.ClaimID)
}

// Validate checks that the request is well-formed.
func (r *FinalizeRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("request is required: %w", sentinel.ErrInvalidState)
	}
	if r.ClaimID == "" {
		return fmt.Errorf("claimId is required: %w", sentinel.ErrInvalidState)
	}
	return nil
}
