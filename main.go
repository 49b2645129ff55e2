package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/server"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/task"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/config"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 数据加载input的缓存地址，设置为空则禁用缓存功能
	// 缓存：将MongoDB中的路网数据根据db和col序列化到本地文件系统，并总是先试图从文件系统中加载
	cacheDir = flag.String("cache", "data/", "input cache dir path (empty means disable cache)")
	// .env文件路径
	envFile = flag.String("env", "", ".env file path (empty means ./.env)")
	// 对外服务监听地址，覆盖配置文件
	listen = flag.String("listen", "", "HTTP listening address (empty means use config or disable), e.g. :8080")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "simulet")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}

	// 获取配置
	c, err := config.Load(*configPath, *configData)
	if err != nil {
		log.Panicf("config load err: %v", err)
	}
	if *envFile != "" {
		config.ApplyEnv(&c, *envFile)
	} else {
		config.ApplyEnv(&c)
	}
	if *listen != "" {
		c.Server.Listen = *listen
	}
	log.Infof("%+v", c)

	t, err := task.NewContext(c, *cacheDir)
	if err != nil {
		log.Panicf("init err: %v", err)
	}
	if err := t.Init(); err != nil {
		log.Panicf("init err: %v", err)
	}

	var srv *server.Server
	if addr := c.Server.Listen; addr != "" {
		srv = server.New(t)
		go func() {
			if err := srv.Listen(addr); err != nil {
				log.Errorf("server error: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	t.Run(ctx)

	if srv != nil {
		// 运行结束后继续提供最终快照，直到收到退出信号
		if ctx.Err() == nil {
			log.Info("simulation finished, serving final snapshot until interrupted")
			<-ctx.Done()
		}
		if err := srv.Shutdown(5 * time.Second); err != nil {
			log.Errorf("server forced to shutdown: %v", err)
		}
	}
}
