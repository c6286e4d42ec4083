package platform

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/sweeper/internal/purge"
	"github.com/keshon/sweeper/pkg/retrylimit"
)

type fakeSession struct {
	messages   []*discordgo.Message
	fetchArgs  []string
	fetchLimit int
	deleted    []string
	deleteErr  error
	perms      int64
}

func (f *fakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.fetchArgs = []string{channelID, beforeID, afterID, aroundID}
	f.fetchLimit = limit
	return f.messages, nil
}

func (f *fakeSession) ChannelMessagesBulkDelete(_ string, messages []string, _ ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, messages...)
	return f.deleteErr
}

func (f *fakeSession) UserChannelPermissions(string, string, ...discordgo.RequestOption) (int64, error) {
	return f.perms, nil
}

func restError(status, code int) *discordgo.RESTError {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "nope"},
	}
}

func TestClassify(t *testing.T) {
	generic := errors.New("connection reset")

	tests := []struct {
		name       string
		err        error
		permission bool
		rateLimit  bool
	}{
		{name: "nil", err: nil},
		{name: "missing permissions code", err: restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions), permission: true},
		{name: "missing access code", err: restError(http.StatusNotFound, discordgo.ErrCodeMissingAccess), permission: true},
		{name: "plain 403", err: restError(http.StatusForbidden, 0), permission: true},
		{name: "429 status", err: restError(http.StatusTooManyRequests, 0), rateLimit: true},
		{name: "too old to bulk delete", err: restError(http.StatusBadRequest, 50034)},
		{name: "generic", err: generic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.permission, errors.Is(got, purge.ErrPermissionDenied))
			assert.Equal(t, tt.rateLimit, retrylimit.IsRateLimitError(got))
		})
	}
}

func TestClassifyRateLimitCarriesRetryAfter(t *testing.T) {
	err := &discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{
		TooManyRequests: &discordgo.TooManyRequests{RetryAfter: 1500 * time.Millisecond},
		URL:             "https://discord.com/api/channels/1/messages/bulk-delete",
	}}

	got := Classify(err)

	var rl *RateLimitedError
	require.ErrorAs(t, got, &rl)
	assert.Equal(t, 1500*time.Millisecond, rl.RetryAfter())
	assert.Equal(t, http.StatusTooManyRequests, rl.StatusCode())
	assert.True(t, retrylimit.IsRateLimitError(got))
}

func TestMessagesConvertsAndPassesCursor(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := &fakeSession{messages: []*discordgo.Message{
		{ID: "30", Author: &discordgo.User{ID: "a"}, Timestamp: ts},
		{ID: "29"},
	}}

	items, err := New(s).Messages(context.Background(), "chan", "31", 50)

	require.NoError(t, err)
	assert.Equal(t, []string{"chan", "31", "", ""}, s.fetchArgs)
	assert.Equal(t, 50, s.fetchLimit)
	require.Len(t, items, 2)
	assert.Equal(t, "30", items[0].ID)
	assert.Equal(t, "a", items[0].AuthorID)
	assert.Equal(t, ts, items[0].Timestamp)
	assert.Empty(t, items[1].AuthorID)
}

func TestBulkDeleteMapsPermissionError(t *testing.T) {
	s := &fakeSession{deleteErr: restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)}

	err := New(s).BulkDelete(context.Background(), "chan", []string{"1", "2"})

	assert.ErrorIs(t, err, purge.ErrPermissionDenied)
	assert.Equal(t, []string{"1", "2"}, s.deleted)
}

func TestBulkDeleteRejectsOversizedBatch(t *testing.T) {
	s := &fakeSession{}
	ids := make([]string, purge.MaxBatchSize+1)

	err := New(s).BulkDelete(context.Background(), "chan", ids)

	assert.Error(t, err)
	assert.Empty(t, s.deleted)
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		perms int64
		want  bool
	}{
		{perms: discordgo.PermissionManageMessages, want: true},
		{perms: discordgo.PermissionAdministrator, want: true},
		{perms: discordgo.PermissionSendMessages, want: false},
	}
	for _, tt := range tests {
		ok, err := New(&fakeSession{perms: tt.perms}).HasPermission("u", "c", discordgo.PermissionManageMessages)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok)
	}
}
