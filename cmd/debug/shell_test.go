package debug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleter(t *testing.T) {
	got := completer("set")
	assert.Contains(t, got, "setbrk")
	assert.Contains(t, got, "setmem")
	assert.Contains(t, got, "setreg")

	got = completer("sb")
	assert.Equal(t, []string{"sb"}, got)
}

func TestHelpMessageByGroups(t *testing.T) {
	msg := helpMessageByGroups(debugRootCmd)

	breaks := strings.Index(msg, "- [breaks]")
	guest := strings.Index(msg, "- [guest]")
	other := strings.Index(msg, "- [other]")
	require.True(t, breaks >= 0, msg)
	require.True(t, guest > breaks, msg)
	require.True(t, other > guest, msg)

	assert.Contains(t, msg[breaks:guest], "setbrk")
	assert.Contains(t, msg[guest:], "guestreg")
	assert.Contains(t, msg[guest:], "profile")
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		value uint64
		size  int
		want  []byte
		err   bool
	}{
		{0xcc, 1, []byte{0xcc}, false},
		{0x1234, 2, []byte{0x34, 0x12}, false},
		{0xdeadbeef, 4, []byte{0xef, 0xbe, 0xad, 0xde}, false},
		{1, 8, []byte{1, 0, 0, 0, 0, 0, 0, 0}, false},
		{0x100, 1, nil, true},
		{1, 3, nil, true},
	}

	for _, tt := range tests {
		got, err := encodeValue(tt.value, tt.size)
		if tt.err {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestStopIdempotent(t *testing.T) {
	s := &DebugSession{done: make(chan bool)}
	s.Stop()
	s.Stop()

	select {
	case <-s.done:
	default:
		t.Fatal("session not stopped")
	}
}
