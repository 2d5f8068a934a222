package relayerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	cause := errors.New("status 500")

	err := ForMonitor(SnapshotUnavailable, "fetch snapshot", "cam2", cause)
	assert.Equal(t, "fetch snapshot cam2: snapshot unavailable: status 500", err.Error())
	assert.ErrorIs(t, err, cause)

	err = New(UpstreamUnavailable, "list monitors", nil)
	assert.Equal(t, "list monitors: upstream unavailable", err.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: Unknown},
		{name: "plain error", err: errors.New("boom"), want: Unknown},
		{name: "direct", err: New(ChatDeliveryError, "send", nil), want: ChatDeliveryError},
		{
			name: "wrapped",
			err:  fmt.Errorf("relay: %w", Errorf(UpstreamProtocolError, "list monitors", "status %d", 401)),
			want: UpstreamProtocolError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	err := New(NothingToSend, "relay", nil)
	assert.True(t, Is(err, NothingToSend))
	assert.False(t, Is(err, ChatDeliveryError))
	assert.False(t, Is(nil, Unknown))
}
