package server

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	SnapshotServiceName = "city.sim.v1.SnapshotService"
	// SnapshotServiceGetSnapshotProcedure GetSnapshot接口的完整路径
	SnapshotServiceGetSnapshotProcedure = "/" + SnapshotServiceName + "/GetSnapshot"
)

func (s *Server) snapshotHandler(opts ...connect.HandlerOption) (string, http.Handler) {
	return SnapshotServiceGetSnapshotProcedure,
		connect.NewUnaryHandler(SnapshotServiceGetSnapshotProcedure, s.GetSnapshotRPC, opts...)
}

// GetSnapshotRPC 获取最近一次发布的快照
// 功能：RPC接口，快照按JSON字段名转换为google.protobuf.Struct
func (s *Server) GetSnapshotRPC(ctx context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	snap := s.sim.Snapshot()
	if snap == nil {
		return nil, connect.NewError(connect.CodeUnavailable, errNotInitialized)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	res, err := structpb.NewStruct(m)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(res), nil
}
