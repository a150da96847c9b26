package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"intentserver/classification"
	"intentserver/database"
	"intentserver/server/middleware"
)

// Options настройки HTTP-сервера
type Options struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server HTTP-обертка над движком классификации: принимает запросы,
// зовет менеджер модели и пишет историю предсказаний.
type Server struct {
	engine  *gin.Engine
	manager *classification.ModelManager
	history *database.HistoryDB
	httpSrv *http.Server
}

// NewServer собирает сервер с маршрутами и middleware.
// history может быть nil, тогда история предсказаний не ведется.
func NewServer(manager *classification.ModelManager, history *database.HistoryDB, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.CORS())
	engine.Use(middleware.Gzip())
	if opts.RateLimitRPS > 0 {
		engine.Use(middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	}

	s := &Server{
		engine:  engine,
		manager: manager,
		history: history,
		httpSrv: &http.Server{
			Addr:         ":" + opts.Port,
			Handler:      engine,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	ml := s.engine.Group("/api/ml")
	{
		ml.POST("/predict", s.handlePredict)
		ml.POST("/predict/batch", s.handlePredictBatch)
		ml.POST("/retrain", s.handleRetrain)
		ml.GET("/model/info", s.handleModelInfo)
		ml.GET("/intents", s.handleIntents)
		ml.GET("/health", s.handleHealth)
		ml.GET("/history", s.handleHistory)
		ml.GET("/history/stats", s.handleHistoryStats)
	}
}

// Engine возвращает gin-движок, используется в тестах
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run запускает сервер и блокируется до его остановки
func (s *Server) Run() error {
	log.Printf("[Server] запуск на %s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("[Server] остановка...")
	return s.httpSrv.Shutdown(ctx)
}
