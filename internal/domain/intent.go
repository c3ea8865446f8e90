package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntentKind distinguishes the two payment flows that issue intents.
type IntentKind string

const (
	// KindPresale is a presale contribution intent.
	KindPresale IntentKind = "presale"

	// KindEarlyClaim is a flat-fee early-claim intent.
	KindEarlyClaim IntentKind = "early-claim"
)

// IntentStatus is the settlement state of an intent.
type IntentStatus string

const (
	// StatusPending means no matching on-chain transfer has been observed yet.
	StatusPending IntentStatus = "pending"

	// StatusSettled means a transfer carrying the intent's memo tag and the
	// expected stablecoin mint was observed. Terminal.
	StatusSettled IntentStatus = "settled"
)

// Intent is a server-issued record of an expected future on-chain payment.
// The memo tag is the sole correlation key between the intent and its
// settlement transaction; the reference it embeds must stay unguessable.
type Intent struct {
	Reference    string
	Kind         IntentKind
	MemoTag      string
	BuyerAddress string

	// AmountDue is the stablecoin amount the buyer is asked to transfer,
	// rounded to 6 fractional digits.
	AmountDue decimal.Decimal

	// PriceUsed is the unit price applied at issuance, kept for audit.
	// Zero for early-claim intents.
	PriceUsed decimal.Decimal

	// Gated records whether the holder discount applied at issuance time.
	Gated bool

	Status    IntentStatus
	CreatedAt time.Time

	SettledAt           *time.Time
	SettlementSignature string
}

// ClaimJobStatus is the lifecycle state of a claim job. Only "queued" is
// tracked here; downstream processing is external.
type ClaimJobStatus string

// JobQueued is the only status a claim job carries inside this service.
const JobQueued ClaimJobStatus = "queued"

// ClaimJob is a fire-and-forget hand-off to the external distribution worker.
// The fee signature is format-checked only; the worker must re-verify it
// against the ledger before acting.
type ClaimJob struct {
	JobID        string
	BuyerAddress string
	FeeSignature string
	Status       ClaimJobStatus
	QueuedAt     time.Time
}
