package solana

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RPCClient is the narrow read surface this service needs from a Solana node.
type RPCClient interface {
	// GetTransaction retrieves a confirmed transaction by signature.
	// Returns nil without error when the transaction is unknown to the node.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves up to limit signatures for an
	// address, most recent first.
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error)

	// GetTokenBalance sums the UI token balances of all accounts the owner
	// holds for the given mint.
	GetTokenBalance(ctx context.Context, owner, mint string) (decimal.Decimal, error)
}

// SignatureInfo is one entry from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// Transaction carries the parts of a confirmed transaction the settlement
// matcher inspects: log output, instruction payloads, and the token balance
// snapshots around the transfer.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err               interface{}
	LogMessages       []string
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// TokenBalance is one pre/post token balance snapshot entry.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	UIAmount     string
}

// TransactionMessage contains the parsed transaction message. Instructions
// are kept as raw JSON: different indexers surface memo data in different
// shapes, and the matcher only needs to search the payload for a tag.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions json.RawMessage
}
