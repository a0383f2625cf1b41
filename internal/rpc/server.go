package rpc

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
	"github.com/RowanDark/adfgvx/internal/logging"
)

const (
	requestIDHeader = "x-request-id"
	stopTimeout     = 2 * time.Second
)

// Server implements CipherServer on top of the adfgvx package.
type Server struct {
	token    string
	logger   *logging.AuditLogger
	maxConns int
	opts     []adfgvx.Option
}

type ServerOption func(*Server)

// WithAuthToken requires every call to carry "authorization: Bearer <token>".
func WithAuthToken(token string) ServerOption {
	return func(s *Server) {
		s.token = strings.TrimSpace(token)
	}
}

func WithAuditLogger(logger *logging.AuditLogger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxConns caps simultaneous client connections. Zero means no cap.
func WithMaxConns(n int) ServerOption {
	return func(s *Server) {
		if n >= 0 {
			s.maxConns = n
		}
	}
}

// WithCipherOptions forwards capacity options to every cipher call.
func WithCipherOptions(opts ...adfgvx.Option) ServerOption {
	return func(s *Server) {
		s.opts = append(s.opts, opts...)
	}
}

func NewServer(opts ...ServerOption) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	return s
}

// Encipher handles adfgvx.v1.Cipher/Encipher.
func (s *Server) Encipher(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key, text, err := requestFields(req)
	if err != nil {
		return nil, err
	}
	res, err := adfgvx.Encipher(text, key, s.opts...)
	if err != nil {
		return nil, cipherStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"text":      res.Ciphertext,
		"dropped":   res.Dropped,
		"truncated": res.Truncated,
	})
}

// Decipher handles adfgvx.v1.Cipher/Decipher. With allow_partial set, decode
// failures after a valid key return the recovered prefix and an "error"
// field instead of a status error.
func (s *Server) Decipher(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key, text, err := requestFields(req)
	if err != nil {
		return nil, err
	}
	res, err := adfgvx.Decipher(text, key, s.opts...)
	reply := map[string]any{
		"text":      res.Plaintext,
		"partial":   res.Partial(),
		"truncated": res.Truncated,
	}
	if err != nil {
		allowPartial := req.GetFields()["allow_partial"].GetBoolValue()
		if !allowPartial || errors.Is(err, adfgvx.ErrInvalidKeyLength) {
			return nil, cipherStatus(err)
		}
		reply["error"] = err.Error()
	}
	return structpb.NewStruct(reply)
}

func requestFields(req *structpb.Struct) (key, text string, err error) {
	fields := req.GetFields()
	keyVal, ok := fields["key"]
	if !ok {
		return "", "", status.Error(codes.InvalidArgument, "missing field: key")
	}
	textVal, ok := fields["text"]
	if !ok {
		return "", "", status.Error(codes.InvalidArgument, "missing field: text")
	}
	return keyVal.GetStringValue(), textVal.GetStringValue(), nil
}

func cipherStatus(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

// UnaryInterceptor authenticates calls, tags them with a request ID and
// writes one audit event per call.
func (s *Server) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	requestID := firstValue(md, requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, requestID))

	if err := s.authorize(md); err != nil {
		_ = s.logger.Emit(logging.AuditEvent{
			RequestID: requestID,
			EventType: logging.EventRPCDenied,
			Decision:  logging.DecisionDeny,
			Reason:    err.Error(),
			Metadata:  map[string]any{"method": info.FullMethod},
		})
		return nil, err
	}

	start := time.Now()
	resp, err := handler(ctx, req)

	event := logging.AuditEvent{
		RequestID: requestID,
		EventType: logging.EventRPCCall,
		Decision:  logging.DecisionAllow,
		Metadata: map[string]any{
			"method":     info.FullMethod,
			"code":       status.Code(err).String(),
			"elapsed_us": time.Since(start).Microseconds(),
		},
	}
	if in, ok := req.(*structpb.Struct); ok {
		event.Metadata["key"] = in.GetFields()["key"].GetStringValue()
		event.Metadata["input_len"] = len(in.GetFields()["text"].GetStringValue())
	}
	if err != nil {
		event.Decision = logging.DecisionDeny
		event.Reason = status.Convert(err).Message()
	}
	_ = s.logger.Emit(event)
	return resp, err
}

func (s *Server) authorize(md metadata.MD) error {
	if s.token == "" {
		return nil
	}
	header := firstValue(md, "authorization")
	if header == "" {
		return status.Error(codes.Unauthenticated, "missing authorization metadata")
	}
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return status.Error(codes.Unauthenticated, "authorization must use the Bearer scheme")
	}
	supplied := strings.TrimSpace(header[len(prefix):])
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.token)) != 1 {
		return status.Error(codes.Unauthenticated, "invalid auth token")
	}
	return nil
}

func firstValue(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

// Serve runs the service on lis until ctx is cancelled, then stops
// gracefully. It returns nil after a shutdown triggered by ctx.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	if s.maxConns > 0 {
		lis = netutil.LimitListener(lis, s.maxConns)
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(s.UnaryInterceptor))
	RegisterCipherServer(srv, s)

	quit := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
		case <-quit:
			return
		}

		done := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(stopTimeout):
			srv.Stop()
			<-done
		}
	}()

	err := srv.Serve(lis)
	close(quit)
	<-stopped
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		srv.Stop()
		return err
	}
	return nil
}
