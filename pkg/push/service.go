/*
Package push delivers task snapshots to client-registered webhooks.  Configs
are kept per task in an in-memory registry; delivery failures are logged, not
surfaced, since push is best-effort by contract.
*/
package push

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
	"github.com/theapemachine/a2a-engine/pkg/metrics"
	"github.com/theapemachine/a2a-engine/pkg/utils"
)

const DefaultHTTPTimeout = 10 * time.Second

/*
Service stores per-task push notification configs and posts task updates to
the registered webhooks.
*/
type Service struct {
	mu      sync.RWMutex
	configs map[string]map[string]a2a.PushNotificationConfig
	client  *http.Client
}

func NewService() *Service {
	timeout := viper.GetDuration("pushNotifier.httpTimeout")
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	return &Service{
		configs: make(map[string]map[string]a2a.PushNotificationConfig),
		client:  &http.Client{Timeout: timeout},
	}
}

/*
Set registers a webhook config for a task.  A config without an id is
assigned one, so later Get and re-Set calls can address it.
*/
func (service *Service) Set(
	taskID string, config a2a.PushNotificationConfig,
) (a2a.TaskPushNotificationConfig, *errors.RpcError) {
	if config.URL == "" {
		return a2a.TaskPushNotificationConfig{}, errors.ErrInvalidParams.WithMessagef(
			"push notification config requires a url",
		)
	}

	if config.ID == nil || *config.ID == "" {
		config.ID = utils.Ptr(taskID)
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	byID, ok := service.configs[taskID]

	if !ok {
		byID = make(map[string]a2a.PushNotificationConfig)
		service.configs[taskID] = byID
	}

	byID[*config.ID] = config

	return a2a.TaskPushNotificationConfig{
		TaskID:                 taskID,
		PushNotificationConfig: config,
	}, nil
}

/*
Get returns a task's webhook config.  With an empty configID any registered
config for the task satisfies the call.
*/
func (service *Service) Get(
	taskID, configID string,
) (a2a.TaskPushNotificationConfig, *errors.RpcError) {
	service.mu.RLock()
	defer service.mu.RUnlock()

	byID, ok := service.configs[taskID]

	if !ok || len(byID) == 0 {
		return a2a.TaskPushNotificationConfig{}, errors.ErrPushNotificationNotSupported.WithMessagef(
			"no push notification config for task %s", taskID,
		)
	}

	if configID != "" {
		config, ok := byID[configID]

		if !ok {
			return a2a.TaskPushNotificationConfig{}, errors.ErrPushNotificationNotSupported.WithMessagef(
				"no push notification config %s for task %s", configID, taskID,
			)
		}

		return a2a.TaskPushNotificationConfig{TaskID: taskID, PushNotificationConfig: config}, nil
	}

	for _, config := range byID {
		return a2a.TaskPushNotificationConfig{TaskID: taskID, PushNotificationConfig: config}, nil
	}

	return a2a.TaskPushNotificationConfig{}, errors.ErrPushNotificationNotSupported
}

// Has reports whether any webhook is registered for the task.
func (service *Service) Has(taskID string) bool {
	service.mu.RLock()
	defer service.mu.RUnlock()
	return len(service.configs[taskID]) > 0
}

// Delete removes every webhook config registered for the task.
func (service *Service) Delete(taskID string) {
	service.mu.Lock()
	defer service.mu.Unlock()
	delete(service.configs, taskID)
}

/*
Notify posts the task snapshot to every webhook registered for it.  Errors
are logged and counted; the caller's flow never depends on delivery.
*/
func (service *Service) Notify(ctx context.Context, task *a2a.Task) {
	if task == nil {
		return
	}

	service.mu.RLock()
	configs := make([]a2a.PushNotificationConfig, 0, len(service.configs[task.ID]))

	for _, config := range service.configs[task.ID] {
		configs = append(configs, config)
	}
	service.mu.RUnlock()

	for _, config := range configs {
		service.send(ctx, task, config)
	}
}

func (service *Service) send(
	ctx context.Context, task *a2a.Task, config a2a.PushNotificationConfig,
) {
	data, err := json.Marshal(task)

	if err != nil {
		log.Error("failed to marshal task for push", "taskID", task.ID, "error", err)
		metrics.PushNotifications.WithLabelValues("error").Inc()
		return
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, config.URL, bytes.NewReader(data),
	)

	if err != nil {
		log.Error("failed to build push request", "taskID", task.ID, "error", err)
		metrics.PushNotifications.WithLabelValues("error").Inc()
		return
	}

	req.Header.Set("Content-Type", "application/json")

	if config.Token != nil && *config.Token != "" {
		req.Header.Set("X-A2A-Notification-Token", *config.Token)
	}

	applyAuth(req, config.Authentication)

	resp, err := service.client.Do(req)

	if err != nil {
		log.Error("push notification failed", "taskID", task.ID, "url", config.URL, "error", err)
		metrics.PushNotifications.WithLabelValues("error").Inc()
		return
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("push notification rejected",
			"taskID", task.ID, "url", config.URL, "status", resp.StatusCode)
		metrics.PushNotifications.WithLabelValues("rejected").Inc()
		return
	}

	metrics.PushNotifications.WithLabelValues("delivered").Inc()
}

/*
applyAuth sets request credentials from the config's authentication info.
When several schemes are listed the strongest recognized one wins: bearer
over basic over api-key.
*/
func applyAuth(req *http.Request, info *a2a.PushNotificationAuthenticationInfo) {
	if info == nil || info.Credentials == nil || *info.Credentials == "" {
		return
	}

	credentials := *info.Credentials
	var bearer, basic, apiKey bool

	for _, scheme := range info.Schemes {
		switch strings.ToLower(scheme) {
		case "bearer":
			bearer = true
		case "basic":
			basic = true
		case "apikey", "api-key", "api_key":
			apiKey = true
		}
	}

	switch {
	case bearer:
		req.Header.Set("Authorization", "Bearer "+credentials)
	case basic:
		user, pass, found := strings.Cut(credentials, ":")

		if found {
			req.SetBasicAuth(user, pass)
		} else {
			// Pre-encoded or opaque credentials carry no colon; pass them
			// through without appending one.
			req.Header.Set("Authorization",
				"Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))
		}
	case apiKey:
		req.Header.Set("X-API-Key", credentials)
	}
}
