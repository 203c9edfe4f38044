package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	fiberadaptor "github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/errors"
	"github.com/theapemachine/a2a-engine/pkg/jsonrpc"
	"github.com/theapemachine/a2a-engine/pkg/metrics"
	"github.com/theapemachine/a2a-engine/pkg/tasks"
)

const DefaultAgentCardPath = "/.well-known/agent.json"

/*
Server exposes the engine over HTTP: JSON-RPC (with SSE for the streaming
methods) on /rpc, the agent card on its well-known path, plus health and
metrics endpoints.
*/
type Server struct {
	app     *fiber.App
	card    *a2a.AgentCard
	handler tasks.Handler
	checker AuthChecker
}

func NewServer(card *a2a.AgentCard, handler tasks.Handler) *Server {
	return &Server{
		app: fiber.New(fiber.Config{
			AppName:           "A2A-Engine",
			ServerHeader:      "A2A-Engine",
			StreamRequestBody: true,
		}),
		card:    card,
		handler: handler,
	}
}

// WithAuth protects the RPC endpoint with the given checker.
func (srv *Server) WithAuth(checker AuthChecker) *Server {
	srv.checker = checker
	return srv
}

func (srv *Server) Start(addr string) error {
	srv.app.Use(logger.New(logger.Config{
		// Skip logging for the metrics scrape to reduce noise
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/metrics"
		},
	}), healthcheck.New())

	cardPath := viper.GetString("router.agentCardPath")

	if cardPath == "" {
		cardPath = DefaultAgentCardPath
	}

	srv.app.Get("/", srv.handleRoot)
	srv.app.Get(cardPath, srv.handleCard)
	srv.app.Get("/metrics", fiberadaptor.HTTPHandler(promhttp.Handler()))
	srv.app.Post("/rpc", fiberadaptor.HTTPHandler(
		AuthMiddleware(srv.checker, http.HandlerFunc(srv.serveRPC)),
	))

	log.Info("starting server", "addr", addr)
	return srv.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.app.ShutdownWithContext(ctx)
}

func (srv *Server) handleRoot(ctx fiber.Ctx) error {
	return ctx.SendString("OK")
}

func (srv *Server) handleCard(ctx fiber.Ctx) error {
	return ctx.JSON(srv.card)
}

/*
serveRPC decodes single and batch JSON-RPC payloads.  Streaming methods
upgrade the response to an SSE stream and are only valid as single requests.
*/
func (srv *Server) serveRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)

	if err != nil {
		respondError(w, nil, errors.ErrParseError)
		return
	}

	body = bytes.TrimSpace(body)

	if len(body) == 0 {
		respondError(w, nil, errors.ErrInvalidRequest)
		return
	}

	// Support batch requests if the first byte is '['
	if body[0] == '[' {
		srv.serveBatch(w, r, body)
		return
	}

	var req jsonrpc.RPCRequest

	if err = json.Unmarshal(body, &req); err != nil {
		respondError(w, nil, errors.ErrParseError)
		return
	}

	if streaming(req.Method) {
		srv.serveStream(w, r, &req)
		return
	}

	resp := srv.handle(r.Context(), &req)

	// Notification – no ID → no response.
	if req.Notification() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, resp)
}

func (srv *Server) serveBatch(w http.ResponseWriter, r *http.Request, body []byte) {
	var batch []jsonrpc.RPCRequest

	if err := json.Unmarshal(body, &batch); err != nil {
		respondError(w, nil, errors.ErrParseError)
		return
	}

	if len(batch) == 0 {
		respondError(w, nil, errors.ErrInvalidRequest)
		return
	}

	var responses []jsonrpc.RPCResponse

	for i := range batch {
		req := &batch[i]

		var resp jsonrpc.RPCResponse

		if streaming(req.Method) {
			// SSE cannot be multiplexed into a batch response.
			resp = jsonrpc.NewErrorResponse(req.ID, errors.ErrUnsupportedOperation.WithMessagef(
				"%s is not available in batch requests", req.Method,
			))
		} else {
			resp = srv.handle(r.Context(), req)
		}

		if !req.Notification() {
			responses = append(responses, resp)
		}
	}

	if len(responses) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, responses)
}

func (srv *Server) handle(ctx context.Context, req *jsonrpc.RPCRequest) jsonrpc.RPCResponse {
	if req.JSONRPC != "2.0" {
		return jsonrpc.NewErrorResponse(req.ID, errors.ErrInvalidRequest)
	}

	var (
		result any
		rpcErr *errors.RpcError
	)

	switch req.Method {
	case "message/send":
		result, rpcErr = tasks.Send(ctx, req.Params, srv.handler)
	case "tasks/get":
		result, rpcErr = tasks.Get(ctx, req.Params, srv.handler)
	case "tasks/cancel":
		result, rpcErr = tasks.Cancel(ctx, req.Params, srv.handler)
	case "tasks/pushNotificationConfig/set":
		result, rpcErr = tasks.SetPush(ctx, req.Params, srv.handler)
	case "tasks/pushNotificationConfig/get":
		result, rpcErr = tasks.GetPush(ctx, req.Params, srv.handler)
	default:
		rpcErr = errors.ErrMethodNotFound.WithMessagef(
			"method %q not found", req.Method,
		)
	}

	if rpcErr != nil {
		metrics.RPCRequests.WithLabelValues(req.Method, "error").Inc()
		return jsonrpc.NewErrorResponse(req.ID, rpcErr)
	}

	metrics.RPCRequests.WithLabelValues(req.Method, "ok").Inc()
	return jsonrpc.NewResponse(req.ID, result)
}

/*
serveStream handles message/stream and tasks/resubscribe.  Each produced
event goes out as one SSE frame carrying a JSON-RPC response envelope.
*/
func (srv *Server) serveStream(w http.ResponseWriter, r *http.Request, req *jsonrpc.RPCRequest) {
	if req.JSONRPC != "2.0" {
		respondError(w, req.ID, errors.ErrInvalidRequest)
		return
	}

	flusher, ok := w.(http.Flusher)

	if !ok {
		respondError(w, req.ID, errors.ErrInternal.WithMessagef(
			"streaming unsupported by connection",
		))
		return
	}

	var (
		events <-chan a2a.Event
		rpcErr *errors.RpcError
	)

	switch req.Method {
	case "message/stream":
		events, rpcErr = tasks.Stream(r.Context(), req.Params, srv.handler)
	case "tasks/resubscribe":
		events, rpcErr = tasks.Resubscribe(r.Context(), req.Params, srv.handler)
	default:
		rpcErr = errors.ErrMethodNotFound.WithMessagef(
			"method %q not found", req.Method,
		)
	}

	if rpcErr != nil {
		metrics.RPCRequests.WithLabelValues(req.Method, "error").Inc()
		respondError(w, req.ID, rpcErr)
		return
	}

	metrics.RPCRequests.WithLabelValues(req.Method, "ok").Inc()
	metrics.StreamSubscribers.Inc()
	defer metrics.StreamSubscribers.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		var frame []byte
		var err error

		if fail, ok := event.(*streamFailure); ok {
			frame, err = json.Marshal(jsonrpc.NewErrorResponse(req.ID, fail.err))
		} else {
			frame, err = json.Marshal(jsonrpc.NewResponse(req.ID, event))
		}

		if err != nil {
			log.Error("failed to marshal stream event", "error", err)
			continue
		}

		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()
	}
}

func streaming(method string) bool {
	return method == "message/stream" || method == "tasks/resubscribe"
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, id json.RawMessage, rpcErr *errors.RpcError) {
	writeJSON(w, jsonrpc.NewErrorResponse(id, rpcErr))
}
