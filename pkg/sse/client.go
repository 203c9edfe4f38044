/*
Package sse implements the client side of the engine's event stream: it
POSTs a JSON-RPC request and decodes the SSE frames of the response into
protocol events.
*/
package sse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
	"github.com/theapemachine/a2a-engine/pkg/jsonrpc"
)

type Client struct {
	URL     string
	Client  *http.Client
	Headers map[string]string
}

func NewClient(url string) *Client {
	return &Client{
		URL:     url,
		Client:  &http.Client{},
		Headers: make(map[string]string),
	}
}

/*
Stream invokes a streaming JSON-RPC method and hands every decoded event to
handler until the stream ends or ctx is canceled.
*/
func (c *Client) Stream(
	ctx context.Context, method string, params any, handler func(a2a.Event),
) error {
	payload := jsonrpc.RPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
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

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.URL, bytes.NewReader(body),
	)

	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	for key, value := range c.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.Client.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := readLine(reader)

		if err != nil {
			// Stream closed by the server once the task reaches a
			// terminal event.
			return nil
		}

		if data == "" {
			continue
		}

		event, err := decodeFrame([]byte(data))

		if err != nil {
			return err
		}

		handler(event)
	}
}

/*
readLine returns the payload of the next data line.  Blank lines and comment
keep-alives yield an empty payload; anything else must be a data line.
*/
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')

	if err != nil {
		return "", err
	}

	line = strings.TrimSpace(line)

	if line == "" || strings.HasPrefix(line, ":") {
		return "", nil
	}

	data, ok := strings.CutPrefix(line, "data: ")

	if !ok {
		return "", fmt.Errorf("unexpected line %q in event stream", line)
	}

	return data, nil
}

/*
decodeFrame unwraps the JSON-RPC envelope of one SSE frame and decodes the
event it carries.
*/
func decodeFrame(data []byte) (a2a.Event, error) {
	var envelope struct {
		Result json.RawMessage  `json:"result"`
		Error  *errors.RpcError `json:"error"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	if envelope.Error != nil {
		return nil, envelope.Error
	}

	return a2a.UnmarshalEvent(envelope.Result)
}
