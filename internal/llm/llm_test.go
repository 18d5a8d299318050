package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Complete(ctx context.Context, req Request) (Completion, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return Completion{}, s.errs[s.calls-1]
	}
	return Completion{Text: `{"ok":true}`}, nil
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: ` {"a":1} `, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n[1,2]\n```", want: `[1,2]`},
		{name: "inline fence", in: "```{\"a\":1}```", want: `{"a":1}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestPlaceholderNotConfigured(t *testing.T) {
	_, err := PlaceholderClient{}.Complete(context.Background(), Request{User: "hi"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestWithRetryZeroReturnsInner(t *testing.T) {
	inner := &scriptedClient{}
	require.Same(t, inner, WithRetry(inner, 0, time.Millisecond))
}

func TestWithRetryRetriesTransientOnly(t *testing.T) {
	inner := &scriptedClient{errs: []error{&StatusError{Provider: "openai", StatusCode: 503, Message: "busy"}}}
	client := WithRetry(inner, 2, time.Millisecond)

	out, err := client.Complete(context.Background(), Request{User: "x"})
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, out.Text)
	require.Equal(t, 2, inner.calls)

	permanent := &scriptedClient{errs: []error{&StatusError{Provider: "openai", StatusCode: 400, Message: "bad"}}}
	_, err = WithRetry(permanent, 2, time.Millisecond).Complete(context.Background(), Request{User: "x"})
	require.Error(t, err)
	require.Equal(t, 1, permanent.calls)
}

func TestWithRetryStopsAtMax(t *testing.T) {
	busy := &StatusError{Provider: "openai", StatusCode: 429, Message: "slow down"}
	inner := &scriptedClient{errs: []error{busy, busy, busy, busy}}
	_, err := WithRetry(inner, 2, time.Millisecond).Complete(context.Background(), Request{})
	require.Error(t, err)
	require.Equal(t, 3, inner.calls)
}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	require.False(t, IsTransient(context.Canceled))
	require.False(t, IsTransient(ErrNotConfigured))
	require.False(t, IsTransient(errors.New("boom")))
	require.True(t, IsTransient(&StatusError{StatusCode: 502}))
}
