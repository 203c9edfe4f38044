package tasks

import (
	"context"
	"encoding/json"

	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
)

func Resubscribe(
	ctx context.Context,
	raw json.RawMessage,
	handler Handler,
) (<-chan a2a.Event, *errors.RpcError) {
	var params a2a.TaskIDParams

	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, errors.ErrInvalidParams
	}

	if params.ID == "" {
		return nil, errors.ErrInvalidParams.WithMessagef("task id is required")
	}

	return handler.OnResubscribe(ctx, params)
}
