// Package retry provides backoff and retry logic for transient failures of
// remote checkpoint stores.
//
// Basic usage:
//
//	cfg := retry.NewConfig(3, time.Second, logger.GetLogger())
//	table, err := retry.DoWithResult(func() (checkpoint.Table, error) {
//		return remote.load()
//	}, cfg)
//
// Typed errors from pkg/errors (a corrupt document, for example) and context
// cancellation are never retried. Local file reads are not retried at all.
package retry
