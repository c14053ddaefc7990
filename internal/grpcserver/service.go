package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alerts.v1.AlertsService"

// AlertsServiceServer is the server API for AlertsService.
type AlertsServiceServer interface {
	ListRules(context.Context, *ListRulesRequest) (*ListRulesResponse, error)
	CreateRule(context.Context, *CreateRuleRequest) (*CreateRuleResponse, error)
	UpdateRule(context.Context, *UpdateRuleRequest) (*UpdateRuleResponse, error)
	DeleteRule(context.Context, *DeleteRuleRequest) (*DeleteRuleResponse, error)
	ToggleRule(context.Context, *ToggleRuleRequest) (*ToggleRuleResponse, error)
	ListNotifications(context.Context, *ListNotificationsRequest) (*ListNotificationsResponse, error)
	Match(context.Context, *MatchRequest) (*MatchResponse, error)
}

// RegisterAlertsServiceServer registers srv on r.
func RegisterAlertsServiceServer(r grpc.ServiceRegistrar, srv AlertsServiceServer) {
	r.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlertsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListRules", AlertsServiceServer.ListRules),
		unary("CreateRule", AlertsServiceServer.CreateRule),
		unary("UpdateRule", AlertsServiceServer.UpdateRule),
		unary("DeleteRule", AlertsServiceServer.DeleteRule),
		unary("ToggleRule", AlertsServiceServer.ToggleRule),
		unary("ListNotifications", AlertsServiceServer.ListNotifications),
		unary("Match", AlertsServiceServer.Match),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alerts/v1/alerts.json",
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary adapts a typed method to a grpc.MethodDesc, running the server's
// interceptor chain around it.
func unary[Req, Resp any](name string, call func(AlertsServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			impl := srv.(AlertsServiceServer)
			if interceptor == nil {
				return call(impl, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(impl, ctx, req.(*Req))
			})
		},
	}
}

// Client is the client API for AlertsService. Every call uses the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListRules(ctx context.Context, in *ListRulesRequest, opts ...grpc.CallOption) (*ListRulesResponse, error) {
	return invoke[ListRulesResponse](ctx, c.cc, "ListRules", in, opts)
}

func (c *Client) CreateRule(ctx context.Context, in *CreateRuleRequest, opts ...grpc.CallOption) (*CreateRuleResponse, error) {
	return invoke[CreateRuleResponse](ctx, c.cc, "CreateRule", in, opts)
}

func (c *Client) UpdateRule(ctx context.Context, in *UpdateRuleRequest, opts ...grpc.CallOption) (*UpdateRuleResponse, error) {
	return invoke[UpdateRuleResponse](ctx, c.cc, "UpdateRule", in, opts)
}

func (c *Client) DeleteRule(ctx context.Context, in *DeleteRuleRequest, opts ...grpc.CallOption) (*DeleteRuleResponse, error) {
	return invoke[DeleteRuleResponse](ctx, c.cc, "DeleteRule", in, opts)
}

func (c *Client) ToggleRule(ctx context.Context, in *ToggleRuleRequest, opts ...grpc.CallOption) (*ToggleRuleResponse, error) {
	return invoke[ToggleRuleResponse](ctx, c.cc, "ToggleRule", in, opts)
}

func (c *Client) ListNotifications(ctx context.Context, in *ListNotificationsRequest, opts ...grpc.CallOption) (*ListNotificationsResponse, error) {
	return invoke[ListNotificationsResponse](ctx, c.cc, "ListNotifications", in, opts)
}

func (c *Client) Match(ctx context.Context, in *MatchRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c.cc, "Match", in, opts)
}
