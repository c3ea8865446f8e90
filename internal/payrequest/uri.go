// Package payrequest builds Solana Pay payment URIs.
package payrequest

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Request describes one payment the buyer is asked to sign.
type Request struct {
	// Recipient is the wallet receiving the transfer.
	Recipient string
	// Amount in the token's UI units.
	Amount decimal.Decimal
	// SPLToken is the mint of the token being transferred.
	SPLToken string
	// Label and Message are shown by the wallet UI.
	Label   string
	Message string
	// Memo is attached to the transfer as a memo instruction. Settlement
	// matching depends on it surviving verbatim.
	Memo string
}

// URI renders the request as a solana: URI. Query fields appear in a fixed
// order (amount, spl-token, label, message, memo); wallets parse order-
// insensitively but downstream QR snapshots compare byte for byte, so the
// builder never reorders.
func (r Request) URI() string {
	var b strings.Builder
	b.WriteString("solana:")
	b.WriteString(r.Recipient)

	sep := byte('?')
	writeField := func(key, value string) {
		if value == "" {
			return
		}
		b.WriteByte(sep)
		sep = '&'
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(escape(value))
	}

	if !r.Amount.IsZero() {
		writeField("amount", r.Amount.String())
	}
	writeField("spl-token", r.SPLToken)
	writeField("label", r.Label)
	writeField("message", r.Message)
	writeField("memo", r.Memo)

	return b.String()
}

// escape percent-encodes a query value. QueryEscape encodes spaces as "+",
// which wallets do not decode; spaces must be "%20".
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
