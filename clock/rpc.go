package clock

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ClockServiceName = "city.sim.v1.ClockService"
	// ClockServiceNowProcedure Now接口的完整路径
	ClockServiceNowProcedure = "/" + ClockServiceName + "/Now"
)

// Handler 创建ClockService的connect处理器
// 返回：路由前缀与处理器，前缀用于挂载到HTTP服务
func (c *Clock) Handler(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
	return ClockServiceNowProcedure, connect.NewUnaryHandler(ClockServiceNowProcedure, c.NowRPC, opts...)
}

// NowRPC 获取当前仿真时间
// 功能：RPC接口，返回当前仿真时间（秒）
func (c *Clock) NowRPC(ctx context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[wrapperspb.DoubleValue], error) {
	t, _ := c.Now()
	return connect.NewResponse(wrapperspb.Double(t)), nil
}
