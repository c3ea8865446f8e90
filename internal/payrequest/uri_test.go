package payrequest

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRequest_URI(t *testing.T) {
	r := Request{
		Recipient: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		Amount:    dec("50.5"),
		SPLToken:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Label:     "Token Presale",
		Message:   "Presale contribution",
		Memo:      "presale-deadbeefdeadbeefdeadbeefdeadbeef",
	}

	want := "solana:9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM" +
		"?amount=50.5" +
		"&spl-token=EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v" +
		"&label=Token%20Presale" +
		"&message=Presale%20contribution" +
		"&memo=presale-deadbeefdeadbeefdeadbeefdeadbeef"

	if got := r.URI(); got != want {
		t.Errorf("URI mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestRequest_URIFieldOrder(t *testing.T) {
	r := Request{
		Recipient: "recipient111",
		Amount:    dec("1"),
		SPLToken:  "mint111",
		Label:     "z",
		Message:   "a",
		Memo:      "m",
	}

	uri := r.URI()
	order := []string{"amount=", "spl-token=", "label=", "message=", "memo="}
	last := -1
	for _, key := range order {
		idx := strings.Index(uri, key)
		if idx < 0 {
			t.Fatalf("missing %s in %s", key, uri)
		}
		if idx < last {
			t.Errorf("field %s out of order in %s", key, uri)
		}
		last = idx
	}
}

func TestRequest_URIOmitsEmptyFields(t *testing.T) {
	r := Request{
		Recipient: "recipient111",
		Amount:    dec("2"),
		SPLToken:  "mint111",
		Memo:      "early-claim-deadbeefdeadbeefdeadbeefdeadbeef",
	}

	uri := r.URI()
	if strings.Contains(uri, "label=") || strings.Contains(uri, "message=") {
		t.Errorf("empty fields must be omitted: %s", uri)
	}

	if !strings.Contains(uri, "?amount=2&spl-token=mint111&memo=") {
		t.Errorf("unexpected query layout: %s", uri)
	}
}

func TestRequest_URIEscapesMemo(t *testing.T) {
	r := Request{
		Recipient: "recipient111",
		Amount:    dec("1"),
		Memo:      "a&b c",
	}

	uri := r.URI()
	if !strings.HasSuffix(uri, "memo=a%26b%20c") {
		t.Errorf("memo not escaped: %s", uri)
	}
}

func TestRequest_URIAmountPlain(t *testing.T) {
	r := Request{
		Recipient: "recipient111",
		Amount:    dec("0.000001"),
	}

	// Amounts must render as plain decimals, never scientific notation.
	if got := r.URI(); got != "solana:recipient111?amount=0.000001" {
		t.Errorf("unexpected URI: %s", got)
	}
}
