package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	handler := NewInterruptHandler(nil)
	assert.NotNil(t, handler.writer)
	assert.False(t, handler.WasInterrupted())
}

func TestHandleInterrupts_Signal(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	ctx := handler.HandleInterrupts(context.Background(), "Server")

	select {
	case <-ctx.Done():
		t.Fatal("context canceled before any signal")
	default:
	}

	handler.signals <- syscall.SIGTERM

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled after signal")
	}

	assert.Eventually(t, handler.WasInterrupted, time.Second, 10*time.Millisecond)
	out := output.String()
	assert.Equal(t, 1, strings.Count(out, "Server interrupted!"))
	assert.Contains(t, out, "Waiting for in-flight work to finish")
}

func TestHandleInterrupts_ParentCanceled(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	parent, cancel := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent, "Recalculation")
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("child context not canceled")
	}

	require.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}
