package jsonrpc

import (
	"encoding/json"

	"github.com/theapemachine/a2a-engine/pkg/errors"
)

type RPCResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      json.RawMessage  `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *errors.RpcError `json:"error,omitempty"`
}

func NewResponse(id json.RawMessage, result any) RPCResponse {
	return RPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func NewErrorResponse(id json.RawMessage, rpcErr *errors.RpcError) RPCResponse {
	return RPCResponse{JSONRPC: "2.0", ID: id, Error: rpcErr}
}
