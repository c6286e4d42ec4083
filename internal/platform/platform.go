// Package platform adapts a discordgo session to the purge engine: history
// fetches, bulk deletes, permission queries, and error classification.
package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/sweeper/internal/history"
	"github.com/keshon/sweeper/internal/purge"
)

// Session is the part of *discordgo.Session the adapter uses.
type Session interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Discord implements purge.Remote on top of a discordgo session.
type Discord struct {
	s Session
}

// New returns an adapter for s. The session should have
// ShouldRetryOnRateLimit disabled so that rate limits reach the queue.
func New(s Session) *Discord {
	return &Discord{s: s}
}

// Messages returns up to limit messages of channelID older than before, most
// recent first.
func (d *Discord) Messages(ctx context.Context, channelID, before string, limit int) ([]history.Item, error) {
	msgs, err := d.s.ChannelMessages(channelID, limit, before, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, Classify(err)
	}
	items := make([]history.Item, 0, len(msgs))
	for _, m := range msgs {
		it := history.Item{ID: m.ID, Timestamp: m.Timestamp}
		if m.Author != nil {
			it.AuthorID = m.Author.ID
		}
		items = append(items, it)
	}
	return items, nil
}

// BulkDelete removes ids from channelID in one call.
func (d *Discord) BulkDelete(ctx context.Context, channelID string, ids []string) error {
	if len(ids) > purge.MaxBatchSize {
		return fmt.Errorf("bulk delete of %d messages exceeds limit %d", len(ids), purge.MaxBatchSize)
	}
	if err := d.s.ChannelMessagesBulkDelete(channelID, ids, discordgo.WithContext(ctx)); err != nil {
		return Classify(err)
	}
	return nil
}

// HasPermission reports whether userID holds perm (or Administrator) in channelID.
func (d *Discord) HasPermission(userID, channelID string, perm int64) (bool, error) {
	perms, err := d.s.UserChannelPermissions(userID, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to get permissions of %s in %s: %w", userID, channelID, err)
	}
	return perms&(perm|discordgo.PermissionAdministrator) != 0, nil
}

// RateLimitedError is returned when Discord answered 429.
type RateLimitedError struct {
	After time.Duration
	Err   error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.After, e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// RetryAfter returns the delay Discord asked for.
func (e *RateLimitedError) RetryAfter() time.Duration { return e.After }

// StatusCode is always 429.
func (e *RateLimitedError) StatusCode() int { return http.StatusTooManyRequests }

// Classify maps discordgo errors onto the errors the purge engine understands.
// Permission refusals wrap purge.ErrPermissionDenied, rate limits become a
// *RateLimitedError, everything else is returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		var after time.Duration
		if rl.RateLimit != nil && rl.TooManyRequests != nil {
			after = rl.RetryAfter
		}
		return &RateLimitedError{After: after, Err: err}
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Message != nil {
			switch rest.Message.Code {
			case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
				return fmt.Errorf("%w: %v", purge.ErrPermissionDenied, err)
			}
		}
		if rest.Response != nil {
			switch rest.Response.StatusCode {
			case http.StatusForbidden:
				return fmt.Errorf("%w: %v", purge.ErrPermissionDenied, err)
			case http.StatusTooManyRequests:
				return &RateLimitedError{Err: err}
			}
		}
	}
	return err
}

var _ purge.Remote = (*Discord)(nil)
