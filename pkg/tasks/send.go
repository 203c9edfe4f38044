package tasks

import (
	"context"
	"encoding/json"

	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
)

func Send(
	ctx context.Context,
	raw json.RawMessage,
	handler Handler,
) (any, *errors.RpcError) {
	var params a2a.MessageSendParams

	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, errors.ErrInvalidParams
	}

	if params.Message == nil {
		return nil, errors.ErrInvalidParams.WithMessagef("message is required")
	}

	result, rpcErr := handler.OnMessageSend(ctx, params)

	if rpcErr != nil {
		return nil, rpcErr
	}

	return result, nil
}
