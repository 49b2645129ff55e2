package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/clock"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity/road"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/task"
)

// Simulator 对外服务所需的仿真任务接口
type Simulator interface {
	Clock() *clock.Clock
	Graph() *road.RoadGraph
	Snapshot() *task.Snapshot
	RequestSpawn(req task.SpawnRequest) error
}

// Server 仿真状态查询服务
// 功能：提供HTTP JSON接口与connect RPC接口
// 说明：只读取已发布的快照，不与驱动协程竞争车辆状态
type Server struct {
	app *fiber.App
	sim Simulator
}

// New 创建服务并注册路由
func New(sim Simulator) *Server {
	s := &Server{sim: sim}
	s.app = fiber.New(fiber.Config{
		AppName:               "roadgraph-sim",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "${status} - ${method} ${path} (${latency})\n",
		Output: log.WriterLevel(logrus.DebugLevel),
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Connect-Protocol-Version",
	}))

	s.app.Get("/health", s.health)
	api := s.app.Group("/api/v1")
	{
		api.Get("/snapshot", s.getSnapshot)
		api.Get("/cars", s.getCars)
		api.Post("/cars", s.postCar)
		api.Get("/adjacency.dot", s.getAdjacencyDOT)
	}

	clockPath, clockHandler := sim.Clock().Handler()
	s.app.Post(clockPath, adaptor.HTTPHandler(clockHandler))
	snapshotPath, snapshotHandler := s.snapshotHandler()
	s.app.Post(snapshotPath, adaptor.HTTPHandler(snapshotHandler))
	return s
}

// App 底层fiber应用
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen 阻塞监听addr
func (s *Server) Listen(addr string) error {
	log.Infof("server listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown 在timeout内关闭服务
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	switch {
	case errors.As(err, &e):
		code, message = e.Code, e.Message
	case errors.Is(err, entity.ErrNotFound):
		code, message = fiber.StatusNotFound, err.Error()
	default:
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
