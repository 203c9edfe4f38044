package tasks

import (
	"context"
	"encoding/json"

	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
)

func Stream(
	ctx context.Context,
	raw json.RawMessage,
	handler Handler,
) (<-chan a2a.Event, *errors.RpcError) {
	var params a2a.MessageSendParams

	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, errors.ErrInvalidParams
	}

	if params.Message == nil {
		return nil, errors.ErrInvalidParams.WithMessagef("message is required")
	}

	return handler.OnMessageStream(ctx, params)
}
