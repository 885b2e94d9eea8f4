package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/weisyn/powminer/internal/api/http/handlers"
	"github.com/weisyn/powminer/internal/api/http/middleware"
	"github.com/weisyn/powminer/internal/api/websocket"
	apiconfig "github.com/weisyn/powminer/internal/config/api"
	chainconfig "github.com/weisyn/powminer/internal/config/chain"
	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/config"
	"github.com/weisyn/powminer/pkg/interfaces/consensus"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/interfaces/mempool"
)

// Server HTTP控制接口服务器
//
// 提供挖矿控制、交易提交、链查询、健康检查与 Prometheus 指标端点。
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	options    *apiconfig.APIOptions
	logger     log.Logger
}

// Dependencies 路由所需的服务
type Dependencies struct {
	MinerService consensus.MinerService
	TxPool       mempool.TxPool
	ChainReader  chainif.ChainReader
	Params       *chaincfg.Params
	EventHub     *websocket.Hub // 为空时不注册 /ws

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewServer 创建HTTP服务器并注册生命周期钩子
func NewServer(
	lifecycle fx.Lifecycle,
	config config.Provider,
	logger log.Logger,
	minerService consensus.MinerService,
	txPool mempool.TxPool,
	chainReader chainif.ChainReader,
	eventBus event.EventBus,
) (*Server, error) {
	params, err := chainconfig.NetParams(config.GetChain().Network)
	if err != nil {
		return nil, err
	}

	apiLogger := logger.With("module", "api")
	var hub *websocket.Hub
	if eventBus != nil {
		hub = websocket.NewHub(apiLogger.GetZapLogger(), eventBus)
	}
	server := &Server{
		router: NewRouter(apiLogger, Dependencies{
			MinerService: minerService,
			TxPool:       txPool,
			ChainReader:  chainReader,
			Params:       params,
			EventHub:     hub,
			Registerer:   prometheus.DefaultRegisterer,
			Gatherer:     prometheus.DefaultGatherer,
		}),
		options: config.GetAPI(),
		logger:  apiLogger,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if hub != nil {
				if err := hub.Start(); err != nil {
					return err
				}
			}
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			err := server.Stop(ctx)
			if hub != nil {
				hub.Stop()
			}
			return err
		},
	})

	return server, nil
}

// NewRouter 创建路由引擎
func NewRouter(logger log.Logger, deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(logger.GetZapLogger()),
		middleware.NewMetrics(deps.Registerer).Middleware(),
	)

	health := handlers.NewHealthHandler(deps.ChainReader, deps.TxPool, deps.MinerService)
	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	handlers.NewMiningHandlers(deps.MinerService, deps.Params, logger).RegisterRoutes(v1)
	if deps.TxPool != nil {
		handlers.NewTxPoolHandlers(deps.TxPool, logger).RegisterRoutes(v1)
	}
	if deps.ChainReader != nil {
		handlers.NewBlockHandlers(deps.ChainReader, logger).RegisterRoutes(v1)
	}
	if deps.EventHub != nil {
		websocket.NewServer(logger.GetZapLogger(), deps.EventHub).RegisterRoutes(v1)
	}

	return router
}

// Start 启动HTTP服务器，配置禁用时为空操作
//
// 监听在返回前完成，端口冲突会直接报错。
func (s *Server) Start() error {
	if s.options == nil || !s.options.Enabled {
		s.logger.Info("HTTP控制接口已禁用")
		return nil
	}

	listener, err := net.Listen("tcp", s.options.ListenAddr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.options.ListenAddr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.options.ReadTimeout,
		WriteTimeout: s.options.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("❌ HTTP服务器运行失败: %v", err)
		}
	}()

	s.logger.Infof("✅ HTTP服务器启动成功，监听地址: %s", listener.Addr())
	return nil
}

// Stop 优雅关闭HTTP服务器
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	timeout := 5 * time.Second
	if s.options != nil && s.options.ShutdownTimeout > 0 {
		timeout = s.options.ShutdownTimeout
	}
	stopCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(stopCtx); err != nil {
		s.logger.Errorf("HTTP服务器关闭出错: %v", err)
		return err
	}

	s.logger.Info("HTTP服务器已关闭")
	return nil
}

// Router 路由引擎
func (s *Server) Router() *gin.Engine { return s.router }
