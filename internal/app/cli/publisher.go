package cli

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/bool64/ctxd"
)

// sourcePublisher is a function that reads seeds from a source and publishes them to a channel.
type sourcePublisher func(ctx context.Context, source io.Reader) <-chan string

// bufferedSourcePublisher creates a new source publisher that reads seeds from a source and publishes them to a buffered channel.
//
// Blank lines are skipped. The seeds without scheme default to https.
func bufferedSourcePublisher(bufSize int, log ctxd.Logger) sourcePublisher {
	return func(ctx context.Context, source io.Reader) <-chan string {
		seedsCh := make(chan string, bufSize)

		log.Debug(ctx, "started buffered publisher", "buffer_size", bufSize)

		go func() {
			defer close(seedsCh)

			s := bufio.NewScanner(source)

			for s.Scan() {
				seed := normalizeSeed(s.Text())
				if seed == "" {
					continue
				}

				log.Debug(ctx, "publishing seed", "seed", seed)

				select {
				case <-ctx.Done():
					log.Debug(ctx, "buffered publisher stopped")

					return

				case seedsCh <- seed:
				}
			}

			if err := s.Err(); err != nil {
				log.Error(ctx, "could not read input for publishing", "error", err)
			}
		}()

		return seedsCh
	}
}

// normalizeSeed trims the seed and adds the https scheme if it is missing.
func normalizeSeed(s string) string {
	s = strings.TrimSpace(s)

	if s == "" || strings.Contains(s, "://") {
		return s
	}

	return "https://" + s
}
