package cache

// Simple JSON protocol for the cache daemon over a Unix domain socket.
// A connection carries a sequence of request/response pairs, one JSON value each.

type Request struct {
	Op    string `json:"op"` // "get" | "put" | "delete"
	Key   string `json:"key"`
	Value []byte `json:"value,omitempty"`
	// TTLMillis keeps sub-second TTLs intact; zero and negative values are sent as-is.
	TTLMillis int64 `json:"ttl_ms,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Value []byte `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}
