// Package grpcserver gRPC健康检查服务
//
// 注册标准的grpc.health.v1.Health与反射服务，服务状态由依赖探测决定：
//   - 每个探测以自己的名字作为service，可单独查询
//   - 空service("")表示整体状态，任一探测失败即为NOT_SERVING
//
// 使用方式：
//
//	grpcurl -plaintext localhost:9090 grpc.health.v1.Health/Check
//	grpcurl -plaintext -d '{"service":"database"}' localhost:9090 grpc.health.v1.Health/Check
package grpcserver

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Dependency 依赖检查
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options 服务选项
type Options struct {
	Interval time.Duration // 探测间隔，默认10s
	Timeout  time.Duration // 单次探测超时，默认2s
	Logger   *zap.Logger
}

// Server gRPC健康检查服务器
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	deps   []Dependency
	opts   Options

	mu      sync.Mutex
	healthy map[string]bool
}

// New 创建服务器并注册Health与反射服务
func New(deps []Dependency, opts Options) *Server {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Logger = opts.Logger.Named("grpc")

	s := &Server{
		grpc:    grpc.NewServer(),
		health:  health.NewServer(),
		deps:    deps,
		opts:    opts,
		healthy: make(map[string]bool, len(deps)),
	}
	grpc_health_v1.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)

	// 首次探测前按不可用处理
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	for _, d := range deps {
		s.health.SetServingStatus(d.Name, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return s
}

// Refresh 执行一轮探测并更新服务状态，返回整体是否可用
func (s *Server) Refresh(ctx context.Context) bool {
	allOK := true
	for _, d := range s.deps {
		checkCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		err := d.Check(checkCtx)
		cancel()

		ok := err == nil
		allOK = allOK && ok
		s.setStatus(d.Name, ok, err)
	}
	s.setStatus("", allOK, nil)
	return allOK
}

func (s *Server) setStatus(name string, ok bool, err error) {
	s.mu.Lock()
	prev, seen := s.healthy[name]
	s.healthy[name] = ok
	s.mu.Unlock()

	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if ok {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(name, status)

	// 只在状态变化时记录日志
	if seen && prev == ok {
		return
	}
	if ok {
		s.opts.Logger.Info("健康状态变更", zap.String("service", name), zap.String("status", status.String()))
	} else {
		s.opts.Logger.Warn("健康状态变更", zap.String("service", name), zap.String("status", status.String()), zap.Error(err))
	}
}

// Serve 启动探测循环并在lis上提供服务，阻塞直到Stop或监听出错
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Refresh(ctx)

	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-checkCtx.Done():
				return
			case <-ticker.C:
				s.Refresh(checkCtx)
			}
		}
	}()

	s.opts.Logger.Info("gRPC健康检查服务已启动", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Stop 把所有服务置为NOT_SERVING后优雅关闭
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
