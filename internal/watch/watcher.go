// Package watch turns deposit-account log notifications into settlement
// checks, so payments usually settle before the buyer polls.
package watch

import (
	"context"
	"errors"
	"log"
	"os"
	"regexp"

	"presale-gateway/internal/observability"
	"presale-gateway/internal/settlement"
	"presale-gateway/internal/solana"
)

var logger = log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lshortfile)

// refPattern extracts memo tags from log lines.
var refPattern = regexp.MustCompile(`(presale|early-claim)-([0-9a-f]{32})`)

// Watcher subscribes to logs mentioning the deposit account and runs a
// settlement check for every reference tag it sees. Checks are idempotent,
// so a duplicate notification costs one store read.
type Watcher struct {
	stream     solana.LogStream
	matcher    *settlement.Matcher
	depositATA string
}

// NewWatcher creates a watcher over an open log stream.
func NewWatcher(stream solana.LogStream, matcher *settlement.Matcher, depositATA string) *Watcher {
	return &Watcher{
		stream:     stream,
		matcher:    matcher,
		depositATA: depositATA,
	}
}

// Run subscribes and processes notifications until ctx is cancelled or the
// stream closes.
func (w *Watcher) Run(ctx context.Context) error {
	ch, err := w.stream.Subscribe(ctx, solana.LogsFilter{Mentions: []string{w.depositATA}})
	if err != nil {
		return err
	}

	logger.Printf("watching logs for %s", w.depositATA)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			w.handle(ctx, n)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, n solana.LogNotification) {
	observability.RecordWatcherNotification()

	if n.Err != nil {
		return
	}

	for _, ref := range extractReferences(n.Logs) {
		observability.RecordWatcherMatch()
		w.check(ctx, ref, n.Signature)
	}
}

func (w *Watcher) check(ctx context.Context, ref, signature string) {
	res, err := w.matcher.Check(ctx, ref)
	if err != nil {
		if errors.Is(err, settlement.ErrUnknownReference) {
			// A tag we never issued, or one that already expired.
			return
		}
		logger.Printf("check for %s (tx %s) failed: %v", ref, signature, err)
		return
	}

	logger.Printf("push check for %s: %s", ref, res.Status)
}

// extractReferences pulls distinct reference ids out of log lines.
func extractReferences(lines []string) []string {
	var refs []string
	seen := make(map[string]struct{})

	for _, line := range lines {
		for _, m := range refPattern.FindAllStringSubmatch(line, -1) {
			ref := m[2]
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}

	return refs
}

// Close stops the underlying stream.
func (w *Watcher) Close() error {
	return w.stream.Close()
}
