package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "config")

const (
	EnvMongoURI    = "SIM_MONGO_URI" // 覆盖input.uri
	EnvDatabaseURL = "DATABASE_URL"  // 覆盖input.postgres
	EnvListen      = "SIM_LISTEN"    // 覆盖server.listen
)

// ApplyEnv 使用环境变量覆盖配置
// 功能：先读取.env文件（不存在时忽略），再用非空的环境变量覆盖连接串与监听地址
// 参数：c-待覆盖的配置，files-.env文件路径，为空时读取当前目录的.env
// 说明：已存在的环境变量不会被.env中的值覆盖
func ApplyEnv(c *Config, files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debugf("no .env file loaded, using system environment: %v", err)
	}
	c.Input.URI = getEnv(EnvMongoURI, c.Input.URI)
	c.Input.Postgres = getEnv(EnvDatabaseURL, c.Input.Postgres)
	c.Server.Listen = getEnv(EnvListen, c.Server.Listen)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
