package tasks

import (
	"context"
	"encoding/json"

	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
)

func SetPush(
	ctx context.Context,
	raw json.RawMessage,
	handler Handler,
) (any, *errors.RpcError) {
	var params a2a.TaskPushNotificationConfig

	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, errors.ErrInvalidParams
	}

	if params.TaskID == "" {
		return nil, errors.ErrInvalidParams.WithMessagef("task id is required")
	}

	config, rpcErr := handler.OnSetPushConfig(ctx, params)

	if rpcErr != nil {
		return nil, rpcErr
	}

	return config, nil
}
