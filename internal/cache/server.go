package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/leonardcser/weather-mcp/internal/logger"
)

// Serve answers protocol requests on l using kv until ctx is cancelled.
// It closes l on return and waits for open connections to finish.
func Serve(ctx context.Context, l net.Listener, kv KV) error {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		conns = make(map[net.Conn]struct{})
	)
	stop := context.AfterFunc(ctx, func() {
		_ = l.Close()
		mu.Lock()
		for c := range conns {
			_ = c.Close()
		}
		mu.Unlock()
	})
	defer stop()
	defer wg.Wait()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warnf("cache daemon: accept: %v", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		mu.Lock()
		conns[conn] = struct{}{}
		mu.Unlock()
		// The cancel hook may have swept conns before this one was added.
		if ctx.Err() != nil {
			_ = conn.Close()
			mu.Lock()
			delete(conns, conn)
			mu.Unlock()
			return nil
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConn(ctx, conn, kv)
			mu.Lock()
			delete(conns, conn)
			mu.Unlock()
		}()
	}
}

func handleConn(ctx context.Context, conn net.Conn, kv KV) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		_ = enc.Encode(handleRequest(ctx, kv, req))
	}
}

func handleRequest(ctx context.Context, kv KV, req Request) Response {
	switch req.Op {
	case "get":
		v, err := kv.Get(ctx, req.Key)
		if err != nil {
			return Response{OK: false, Error: err.Error()}
		}
		return Response{OK: true, Value: v}
	case "put":
		ttl := time.Duration(req.TTLMillis) * time.Millisecond
		if err := kv.Put(ctx, req.Key, req.Value, ttl); err != nil {
			return Response{OK: false, Error: err.Error()}
		}
		return Response{OK: true}
	case "delete":
		if err := kv.Delete(ctx, req.Key); err != nil {
			return Response{OK: false, Error: err.Error()}
		}
		return Response{OK: true}
	default:
		return Response{OK: false, Error: "unknown op"}
	}
}
