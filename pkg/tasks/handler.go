/*
Package tasks maps raw JSON-RPC params onto the request handler's typed
operations, one file per protocol method.
*/
package tasks

import (
	"context"

	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
)

/*
Handler is the set of typed operations the protocol surface dispatches to.
pkg/service's RequestHandler is the production implementation.
*/
type Handler interface {
	OnMessageSend(
		ctx context.Context, params a2a.MessageSendParams,
	) (a2a.Event, *errors.RpcError)
	OnMessageStream(
		ctx context.Context, params a2a.MessageSendParams,
	) (<-chan a2a.Event, *errors.RpcError)
	OnGetTask(
		ctx context.Context, params a2a.TaskQueryParams,
	) (*a2a.Task, *errors.RpcError)
	OnCancelTask(
		ctx context.Context, params a2a.TaskIDParams,
	) (*a2a.Task, *errors.RpcError)
	OnResubscribe(
		ctx context.Context, params a2a.TaskIDParams,
	) (<-chan a2a.Event, *errors.RpcError)
	OnSetPushConfig(
		ctx context.Context, params a2a.TaskPushNotificationConfig,
	) (a2a.TaskPushNotificationConfig, *errors.RpcError)
	OnGetPushConfig(
		ctx context.Context, params a2a.GetTaskPushConfigParams,
	) (a2a.TaskPushNotificationConfig, *errors.RpcError)
}
