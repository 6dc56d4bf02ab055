package audit

import "time"

// Event records one step of a wallet's verification or mint lifecycle.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Address    string    `json:"address"`
	Action     Action    `json:"action"`
	Provider   string    `json:"provider,omitempty"`
	Collection string    `json:"collection,omitempty"`
	AttemptID  string    `json:"attempt_id,omitempty"`
	TxHash     string    `json:"tx_hash,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

type Action string

const (
	ActionVerificationStarted   Action = "verification_started"
	ActionVerificationSucceeded Action = "verification_succeeded"
	ActionVerificationFailed    Action = "verification_failed"
	ActionVerificationCancelled Action = "verification_cancelled"
	ActionProofRejected         Action = "proof_rejected"
	ActionMintSubmitted         Action = "mint_submitted"
	ActionMintFailed            Action = "mint_failed"
)
