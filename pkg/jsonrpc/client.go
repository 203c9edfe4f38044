package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

/*
RPCClient is a minimal JSON-RPC 2.0 HTTP client.  The CLI client command and
the integration tests use it to call the engine.
*/
type RPCClient struct {
	URL     string
	Client  *http.Client
	Headers map[string]string

	nextID int
}

func NewRPCClient(url string) *RPCClient {
	return &RPCClient{
		URL:     url,
		Client:  &http.Client{},
		Headers: make(map[string]string),
	}
}

func (c *RPCClient) Call(
	ctx context.Context,
	method string,
	params any,
	result any,
) error {
	if c.Client == nil {
		c.Client = http.DefaultClient
	}

	c.nextID++

	payload := RPCRequest{
		JSONRPC: "2.0",
		ID:      mustMarshalID(c.nextID),
		Method:  method,
	}

	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return err
		}
		payload.Params = b
	}

	body, err := json.Marshal(payload)

	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.URL, bytes.NewReader(body),
	)

	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	for key, value := range c.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.Client.Do(httpReq)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	var rpcResp RPCResponse

	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if result != nil {
		// Marshal the "result" field back into the caller's struct.
		b, err := json.Marshal(rpcResp.Result)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(b, result); err != nil {
			return err
		}
	}

	return nil
}

func mustMarshalID(v int) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
