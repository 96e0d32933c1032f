// Package grpc implements the gRPC transport for fotiva.
//
// The Assistant service exchanges JSON-encoded utterances and replies over
// gRPC (content-subtype "json"), so kiosks and edge devices can talk to the
// daemon without generated stubs. Navigation pushes go to targets serving
// fotiva.Navigator/Navigate with the same codec.
package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/nadzzz/fotiva/internal/message"
	"github.com/nadzzz/fotiva/internal/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	// ServiceName is the gRPC service of the assistant.
	ServiceName = "fotiva.Assistant"

	// HandleMethod is the full method name of the utterance call.
	HandleMethod = "/fotiva.Assistant/Handle"

	// NavigateMethod is called on navigation targets.
	NavigateMethod = "/fotiva.Navigator/Navigate"
)

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port     int
	dialOpts []grpc.DialOption

	mu     sync.Mutex
	server *grpc.Server
	conns  map[string]*grpc.ClientConn
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{
		port: port,
		dialOpts: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
		conns: make(map[string]*grpc.ClientConn),
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.serve(ctx, lis, handler)
}

func (t *Transport) serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	srv.RegisterService(&assistantDesc, &assistant{handler: handler})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	t.mu.Lock()
	t.server = srv
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	return srv.Serve(lis)
}

// Send delivers a navigation payload to a gRPC target (host:port).
func (t *Transport) Send(ctx context.Context, target message.Target, payload []byte) error {
	conn, err := t.conn(target.Endpoint)
	if err != nil {
		return err
	}

	var ack json.RawMessage
	err = conn.Invoke(ctx, NavigateMethod, json.RawMessage(payload), &ack,
		grpc.CallContentSubtype(codecName))
	if err != nil {
		return fmt.Errorf("grpc send to %s: %w", target.Endpoint, err)
	}
	slog.Debug("grpc send success", "target", target.Endpoint)
	return nil
}

func (t *Transport) conn(endpoint string) (*grpc.ClientConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.conns[endpoint]; ok {
		return c, nil
	}
	c, err := grpc.NewClient(endpoint, t.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client for %s: %w", endpoint, err)
	}
	t.conns[endpoint] = c
	return c, nil
}

// Close gracefully stops the gRPC server and drops client connections.
func (t *Transport) Close() error {
	t.mu.Lock()
	srv := t.server
	t.mu.Unlock()
	if srv != nil {
		srv.GracefulStop()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for ep, c := range t.conns {
		_ = c.Close()
		delete(t.conns, ep)
	}
	return nil
}

// AssistantServer is the server API of fotiva.Assistant.
type AssistantServer interface {
	Handle(ctx context.Context, u *message.Utterance) (*message.Reply, error)
}

type assistant struct {
	handler transport.Handler
}

func (a *assistant) Handle(ctx context.Context, u *message.Utterance) (*message.Reply, error) {
	return a.handler(ctx, u)
}

var assistantDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssistantServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Handle", Handler: handleUnary},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fotiva/assistant",
}

func handleUnary(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.Utterance)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServer).Handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HandleMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServer).Handle(ctx, req.(*message.Utterance))
	})
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		slog.Warn("grpc call failed", "method", info.FullMethod, "duration", time.Since(start), "error", err)
	} else {
		slog.Debug("grpc call", "method", info.FullMethod, "duration", time.Since(start))
	}
	return resp, err
}
