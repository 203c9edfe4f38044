package a2a

/*
MessageSendParams carries the payload of message/send and message/stream.
*/
type MessageSendParams struct {
	Message       *Message                  `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// MessageSendConfiguration tunes how a send request is processed.
type MessageSendConfiguration struct {
	AcceptedOutputModes    []string                `json:"acceptedOutputModes,omitempty"`
	HistoryLength          *int                    `json:"historyLength,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
	Blocking               *bool                   `json:"blocking,omitempty"`
}

// TaskIDParams represents the base parameters for task ID-based operations.
type TaskIDParams struct {
	// ID is the unique identifier of the task
	ID string `json:"id"`
	// Metadata is optional metadata to include with the operation
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskQueryParams represents the parameters for querying task information.
type TaskQueryParams struct {
	TaskIDParams
	// HistoryLength is an optional parameter to specify how much history to retrieve
	HistoryLength *int `json:"historyLength,omitempty"`
}

// PushNotificationConfig represents the configuration for push notifications.
type PushNotificationConfig struct {
	// URL is the endpoint where the engine should send notifications
	URL string `json:"url"`
	// ID is an optional identifier for this config
	ID *string `json:"id,omitempty"`
	// Token is a token to be included in push notification requests for verification
	Token *string `json:"token,omitempty"`
	// Authentication is optional authentication details needed by the webhook
	Authentication *PushNotificationAuthenticationInfo `json:"authentication,omitempty"`
}

// PushNotificationAuthenticationInfo describes how webhook calls authenticate.
type PushNotificationAuthenticationInfo struct {
	Schemes     []string `json:"schemes"`
	Credentials *string  `json:"credentials,omitempty"`
}

// TaskPushNotificationConfig associates a push config with a task.
type TaskPushNotificationConfig struct {
	// TaskID is the ID of the task the notification config is associated with
	TaskID string `json:"taskId"`
	// PushNotificationConfig is the push notification configuration details
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

/*
GetTaskPushConfigParams is the modern parameter shape of
tasks/pushNotificationConfig/get.  The legacy `{ "id": ... }` shape is also
accepted by the router.
*/
type GetTaskPushConfigParams struct {
	ID                       string         `json:"id,omitempty"`
	TaskID                   string         `json:"taskId,omitempty"`
	PushNotificationConfigID *string        `json:"pushNotificationConfigId,omitempty"`
	Metadata                 map[string]any `json:"metadata,omitempty"`
}
