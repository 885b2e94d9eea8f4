package websocket

import "encoding/json"

// JSON-RPC 错误码
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result"`
}

type errorResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Error   *rpcError   `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

type notification struct {
	JSONRPC string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  notificationParams `json:"params"`
}

type notificationParams struct {
	Subscription string      `json:"subscription"`
	Result       interface{} `json:"result"`
}

type headResult struct {
	Hash      string `json:"hash"`
	PrevHash  string `json:"prev_hash"`
	Height    uint32 `json:"height"`
	Bits      string `json:"bits"`
	Timestamp int64  `json:"timestamp"`
	TxCount   int    `json:"tx_count,omitempty"`
}

type blockFoundResult struct {
	JobID   string `json:"job_id"`
	Hash    string `json:"hash"`
	Height  uint32 `json:"height"`
	TxCount int    `json:"tx_count"`
}

type miningStatusResult struct {
	JobID      string `json:"job_id"`
	Height     uint32 `json:"height"`
	Bits       string `json:"bits"`
	Iterations uint64 `json:"iterations"`
	HashCount  uint64 `json:"hash_count"`
	HashRate   uint64 `json:"hash_rate"`
	Timestamp  int64  `json:"timestamp"`
}

type minerStateResult struct {
	OldState string `json:"old_state"`
	NewState string `json:"new_state"`
	Message  string `json:"message,omitempty"`
}

type minerErrorResult struct {
	Error     string `json:"error"`
	Timestamp int64  `json:"timestamp"`
}
