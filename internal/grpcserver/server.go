// Package grpcserver implements the AlertsService gRPC server.
//
// It delegates all business logic to the alerts stores and matcher and handles
// only the gRPC transport concerns: validation, error mapping and logging.
// Messages are plain Go structs carried by the JSON codec registered in this
// package.
package grpcserver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"jobmate/alerts-service/internal/alerts"
	"jobmate/alerts-service/internal/notify"
)

// Server implements AlertsServiceServer.
type Server struct {
	rules   *alerts.RuleStore
	history *alerts.HistoryStore
	matcher *alerts.Matcher
	inbox   *notify.Inbox
}

// NewServer constructs a Server. inbox may be nil.
func NewServer(rules *alerts.RuleStore, history *alerts.HistoryStore, matcher *alerts.Matcher, inbox *notify.Inbox) *Server {
	return &Server{rules: rules, history: history, matcher: matcher, inbox: inbox}
}

// NewGRPCServer returns a grpc.Server serving s and the standard health
// service, with request logging.
func NewGRPCServer(s *Server, log *zap.Logger) (*grpc.Server, *health.Server) {
	if log == nil {
		log = zap.NewNop()
	}
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(recoverInterceptor(log), logInterceptor(log)))
	RegisterAlertsServiceServer(gs, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// ListRules returns every stored rule.
func (s *Server) ListRules(ctx context.Context, _ *ListRulesRequest) (*ListRulesResponse, error) {
	return &ListRulesResponse{Rules: s.rules.List(ctx)}, nil
}

// CreateRule validates and stores a new rule.
func (s *Server) CreateRule(ctx context.Context, req *CreateRuleRequest) (*CreateRuleResponse, error) {
	if err := alerts.ValidateRuleInput(req.Rule); err != nil {
		return nil, toGRPCError(err)
	}
	return &CreateRuleResponse{Rule: s.rules.Create(ctx, req.Rule)}, nil
}

// UpdateRule merges a patch into an existing rule.
func (s *Server) UpdateRule(ctx context.Context, req *UpdateRuleRequest) (*UpdateRuleResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	existing, ok := s.rules.Get(ctx, req.ID)
	if !ok {
		return nil, toGRPCError(alerts.ErrRuleNotFound)
	}
	if err := alerts.ValidateRulePatch(existing, req.Patch); err != nil {
		return nil, toGRPCError(err)
	}
	rule, ok := s.rules.Update(ctx, req.ID, req.Patch)
	if !ok {
		return nil, toGRPCError(alerts.ErrRuleNotFound)
	}
	return &UpdateRuleResponse{Rule: rule}, nil
}

// DeleteRule removes a rule. Its history is kept.
func (s *Server) DeleteRule(ctx context.Context, req *DeleteRuleRequest) (*DeleteRuleResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	if !s.rules.Delete(ctx, req.ID) {
		return nil, toGRPCError(alerts.ErrRuleNotFound)
	}
	return &DeleteRuleResponse{Deleted: true}, nil
}

// ToggleRule flips or sets the enabled flag.
func (s *Server) ToggleRule(ctx context.Context, req *ToggleRuleRequest) (*ToggleRuleResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	rule, ok := s.rules.Toggle(ctx, req.ID, req.Enabled)
	if !ok {
		return nil, toGRPCError(alerts.ErrRuleNotFound)
	}
	return &ToggleRuleResponse{Rule: rule}, nil
}

// ListNotifications returns the newest history records.
func (s *Server) ListNotifications(ctx context.Context, req *ListNotificationsRequest) (*ListNotificationsResponse, error) {
	if req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}
	return &ListNotificationsResponse{Notifications: s.history.List(ctx, req.Limit)}, nil
}

// Match runs the matcher over the supplied jobs.
func (s *Server) Match(ctx context.Context, req *MatchRequest) (*MatchResponse, error) {
	opts := alerts.MatchOptions{Notify: req.Notify}
	if req.Notify && s.inbox != nil {
		opts.OnInAppNotify = func(n alerts.Notification) { s.inbox.Push(n.Message) }
	}
	return &MatchResponse{Matches: s.matcher.Match(ctx, req.Jobs, opts)}, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	if errors.Is(err, alerts.ErrRuleNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	var ve *alerts.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Msg)
	}
	return status.Error(codes.Internal, "internal server error")
}

func logInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{zap.String("method", info.FullMethod), zap.String("code", code.String()), zap.Duration("took", time.Since(start))}
		if code == codes.Internal || code == codes.Unknown {
			log.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("grpc call", fields...)
		}
		return resp, err
	}
}

func recoverInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panicked", zap.String("method", info.FullMethod), zap.Any("panic", r))
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
