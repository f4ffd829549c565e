package cache

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// startDaemon serves a MemoryKV on a fresh unix socket until the test ends.
// Callers checking for leaks must register that cleanup first.
func startDaemon(t *testing.T) (*Client, *MemoryKV) {
	t.Helper()
	// Unix socket paths are length-limited; t.TempDir can be too long.
	dir, err := os.MkdirTemp("", "wmc")
	require.NoError(t, err)
	sock := filepath.Join(dir, "cache.sock")

	l, err := net.Listen("unix", sock)
	require.NoError(t, err)

	kv := NewMemoryKV()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, l, kv) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return after cancel")
		}
		_ = os.RemoveAll(dir)
	})
	return NewClient(sock), kv
}

func TestClientServer_RoundTrip(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	client, kv := startDaemon(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))

	_, err := client.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, client.Put(ctx, "k", []byte("v"), time.Minute))
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, kv.Len())

	require.NoError(t, client.Delete(ctx, "k"))
	_, err = client.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientServer_SubSecondTTL(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	client, _ := startDaemon(t)
	ctx := context.Background()

	require.NoError(t, client.Put(ctx, "short", []byte("v"), 50*time.Millisecond))
	_, err := client.Get(ctx, "short")
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)
	_, err = client.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientServer_TypedRemote(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	client, _ := startDaemon(t)
	ctx := context.Background()
	c := NewRemote[record](client)
	key := NewNamespace[record]("r").Key("1")

	require.NoError(t, c.Set(ctx, key, record{Name: "daemon", Count: 3}, time.Minute))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record{Name: "daemon", Count: 3}, got)
}

func TestServe_UnknownOp(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	client, _ := startDaemon(t)
	resp, err := client.roundTrip(context.Background(), Request{Op: "flush"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "unknown op", resp.Error)
}

func TestServe_PipelinedRequests(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	client, _ := startDaemon(t)
	conn, err := net.Dial("unix", client.socketPath)
	require.NoError(t, err)
	defer conn.Close()

	enc := json.NewEncoder(conn)
	dec := json.NewDecoder(conn)
	require.NoError(t, enc.Encode(Request{Op: "put", Key: "a", Value: []byte("1"), TTLMillis: 60_000}))
	require.NoError(t, enc.Encode(Request{Op: "get", Key: "a"}))

	var put, get Response
	require.NoError(t, dec.Decode(&put))
	require.NoError(t, dec.Decode(&get))
	assert.True(t, put.OK)
	assert.True(t, get.OK)
	assert.Equal(t, []byte("1"), get.Value)
}

func TestClient_NoDaemon(t *testing.T) {
	client := NewClient(filepath.Join(os.TempDir(), "wmc-missing.sock"))
	assert.Error(t, client.Ping(context.Background()))
}

// silentListener accepts connections and never answers them.
func silentListener(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "wmc")
	require.NoError(t, err)
	sock := filepath.Join(dir, "cache.sock")
	l, err := net.Listen("unix", sock)
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
		wg    sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = l.Close()
		wg.Wait()
		mu.Lock()
		for _, c := range conns {
			_ = c.Close()
		}
		mu.Unlock()
		_ = os.RemoveAll(dir)
	})
	return sock
}

func TestClient_SilentDaemonTimesOut(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	client := NewClient(silentListener(t), WithRequestTimeout(100*time.Millisecond))

	start := time.Now()
	_, err := client.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	err = client.Put(context.Background(), "k", []byte("v"), time.Minute)
	assert.Error(t, err)
}

func TestClient_ContextDeadlineWins(t *testing.T) {
	client := NewClient(silentListener(t), WithRequestTimeout(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := client.Get(ctx, "k")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewClient_RequestTimeoutDefault(t *testing.T) {
	assert.Equal(t, DefaultRequestTimeout, NewClient("x").requestTimeout)
	assert.Equal(t, DefaultRequestTimeout, NewClient("x", WithRequestTimeout(0)).requestTimeout)
	assert.Equal(t, time.Second, NewClient("x", WithRequestTimeout(time.Second)).requestTimeout)
}

func TestTTLMillis(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int64
	}{
		{900 * time.Microsecond, 1},
		{time.Nanosecond, 1},
		{time.Millisecond, 1},
		{1500 * time.Microsecond, 2},
		{time.Minute, 60_000},
		{0, 0},
		{-time.Second, -1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ttlMillis(tt.ttl), tt.ttl.String())
	}
}

func TestClientServer_SubMillisecondTTLIsStored(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	client, kv := startDaemon(t)
	ctx := context.Background()

	before := time.Now()
	require.NoError(t, client.Put(ctx, "tiny", []byte("v"), 900*time.Microsecond))

	kv.store.mu.Lock()
	e, ok := kv.store.items["tiny"]
	kv.store.mu.Unlock()
	require.True(t, ok)
	assert.GreaterOrEqual(t, e.expiresAt.Sub(before), time.Millisecond)
}

// handoffListener hands out one connection, cancelling the serve context
// first, then blocks until closed.
type handoffListener struct {
	conn   net.Conn
	cancel context.CancelFunc
	once   sync.Once
	closed chan struct{}
}

func (l *handoffListener) Accept() (net.Conn, error) {
	var conn net.Conn
	l.once.Do(func() {
		l.cancel()
		conn = l.conn
	})
	if conn != nil {
		return conn, nil
	}
	<-l.closed
	return nil, net.ErrClosed
}

func (l *handoffListener) Close() error {
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return nil
}

func (l *handoffListener) Addr() net.Addr { return &net.UnixAddr{Name: "handoff", Net: "unix"} }

func TestServe_ConnAcceptedDuringCancelIsClosed(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	server, peer := net.Pipe()
	defer peer.Close()
	ctx, cancel := context.WithCancel(context.Background())
	l := &handoffListener{conn: server, cancel: cancel, closed: make(chan struct{})}

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, l, NewMemoryKV()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve kept a connection accepted during cancel open")
	}
	_ = peer.SetReadDeadline(time.Now().Add(time.Second))
	_, err := peer.Read(make([]byte, 1))
	assert.Error(t, err)
}
