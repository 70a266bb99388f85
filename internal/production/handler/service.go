package handler

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.production.v1.ProductionService"

type RequirementsRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, empty means tomorrow
}

type QueueRequest struct{}

type StartNextBatchRequest struct {
	Source      string `json:"source"`
	RequestedBy string `json:"requested_by"`
	Note        string `json:"note"`
}

type CompleteBatchRequest struct {
	BatchID string `json:"batch_id"`
}

type ReconcileRequest struct{}

type ReconcileResponse struct{}

type RebalanceLegacyRequest struct{}

type RebalanceLegacyResponse struct {
	Compensated int `json:"compensated"`
}

type ProductionServiceServer interface {
	Requirements(context.Context, *RequirementsRequest) (*dto.RequirementsResult, error)
	Queue(context.Context, *QueueRequest) (*dto.QueueSnapshot, error)
	StartNextBatch(context.Context, *StartNextBatchRequest) (*dto.StartBatchResult, error)
	CompleteBatch(context.Context, *CompleteBatchRequest) (*dto.CompleteBatchResult, error)
	Reconcile(context.Context, *ReconcileRequest) (*ReconcileResponse, error)
	RebalanceLegacyConsumption(context.Context, *RebalanceLegacyRequest) (*RebalanceLegacyResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Requirements", ProductionServiceServer.Requirements),
		unary("Queue", ProductionServiceServer.Queue),
		unary("StartNextBatch", ProductionServiceServer.StartNextBatch),
		unary("CompleteBatch", ProductionServiceServer.CompleteBatch),
		unary("Reconcile", ProductionServiceServer.Reconcile),
		unary("RebalanceLegacyConsumption", ProductionServiceServer.RebalanceLegacyConsumption),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/production/v1/production.json",
}

func RegisterProductionServiceServer(s grpc.ServiceRegistrar, srv ProductionServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the path a client invokes for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](method string, call func(ProductionServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ProductionServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ProductionServiceServer), ctx, req.(*Req))
			})
		},
	}
}
