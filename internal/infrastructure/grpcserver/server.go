// Package grpcserver 对编排系统暴露gRPC健康检查（grpc.health.v1）
package grpcserver

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/xiebiao/plantshop/internal/infrastructure/config"
)

// Server gRPC健康检查服务
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	port   int
	name   string
	logger *zap.Logger
}

// New 创建服务（未启动）
func New(cfg *config.Config, logger *zap.Logger) *Server {
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	return &Server{
		grpc:   s,
		health: h,
		port:   cfg.GRPC.Port,
		name:   cfg.App.Name,
		logger: logger,
	}
}

// Enabled grpc.port为0时不启动
func (s *Server) Enabled() bool {
	return s.port > 0
}

// ListenAndServe 监听grpc.port并阻塞服务
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("监听gRPC端口失败: %w", err)
	}
	return s.Serve(lis)
}

// Serve 在给定listener上服务，同时把整体与服务名状态置为SERVING
func (s *Server) Serve(lis net.Listener) error {
	s.SetServing(true)
	s.logger.Info("gRPC健康检查服务已启动", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// SetServing 更新健康状态（关闭前先置为NOT_SERVING，让负载均衡摘除实例）
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.name, status)
}

// Stop 优雅停止
func (s *Server) Stop() {
	s.SetServing(false)
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
