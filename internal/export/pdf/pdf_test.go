package pdf

import (
	"bytes"
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	assert.Equal(t, "AssurePro_Audit_PRJ-001.pdf", Filename("PRJ-001"))
	assert.Equal(t, "AssurePro_Audit_a_b_c.pdf", Filename(`a/b"c`))
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Render(context.Background(), []byte("<p>x</p>"))
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestCloseWithoutBrowser(t *testing.T) {
	assert.NoError(t, New(Config{}, nil).Close())
}

func closedPort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestRender_UnreachableBrowserIsNotCached(t *testing.T) {
	r := New(Config{DebuggerURL: "ws://" + closedPort(t), Timeout: time.Second}, nil)

	for i := 0; i < 2; i++ {
		_, err := r.Render(context.Background(), []byte("<p>x</p>"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connect to chrome")
		r.mu.Lock()
		assert.Nil(t, r.browser)
		r.mu.Unlock()
	}
}

// Needs a local Chrome; set CHROME_BIN to run.
func TestRender_Chrome(t *testing.T) {
	bin := os.Getenv("CHROME_BIN")
	if bin == "" {
		t.Skip("CHROME_BIN not set")
	}
	r := New(Config{ChromeBin: bin, Timeout: 30 * time.Second}, nil)
	defer r.Close()

	out, err := r.Render(context.Background(), []byte(`<html><body><h1>Assurance</h1></body></html>`))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
