package input

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/randengine"
	"gopkg.in/yaml.v2"
)

const loadTimeout = 30 * time.Second

// NodeData 节点输入数据
type NodeData struct {
	ID int32   `yaml:"id" bson:"id"`
	X  float64 `yaml:"x" bson:"x"`
	Y  float64 `yaml:"y" bson:"y"`
}

// RoadData 道路输入数据
type RoadData struct {
	ID         int32   `yaml:"id" bson:"id"`
	From       int32   `yaml:"from" bson:"from"`
	To         int32   `yaml:"to" bson:"to"`
	Capacity   int32   `yaml:"capacity" bson:"capacity"`
	SpeedLimit float64 `yaml:"speed_limit,omitempty" bson:"speed_limit,omitempty"`
	OneWay     *bool   `yaml:"one_way,omitempty" bson:"one_way,omitempty"`   // 为空时按配置比例随机决定
	Bend       float64 `yaml:"bend,omitempty" bson:"bend,omitempty"`         // 弯曲程度，0为直线
	Segments   int     `yaml:"segments,omitempty" bson:"segments,omitempty"` // 曲线采样段数
}

// MapData 路网输入数据
type MapData struct {
	Nodes []NodeData `yaml:"nodes"`
	Roads []RoadData `yaml:"roads"`
}

// Init 加载路网数据
// 功能：根据配置从文件、随机生成、PostgreSQL或MongoDB加载路网
// 参数：c-输入配置，cacheDir-缓存目录（为空则禁用缓存），rng-随机数引擎（随机生成路网时使用）
// 返回：路网数据
// 算法说明：
// 1. 指定文件时直接读取YAML文件
// 2. 指定随机参数时生成随机路网
// 3. 指定PostgreSQL时从nodes/roads表读取
// 4. 否则从MongoDB读取，启用缓存时优先读取缓存文件，下载后写入缓存
func Init(c config.Input, cacheDir string, rng *randengine.Engine) (*MapData, error) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	switch {
	case c.Map.File != "":
		log.Infof("load map from file %s", c.Map.File)
		return LoadFile(c.Map.File)
	case c.Map.Random != nil:
		log.Infof("generate random map %+v", *c.Map.Random)
		return Generate(rng, *c.Map.Random), nil
	case c.Postgres != "":
		log.Info("load map from postgres")
		return loadPostgres(ctx, c.Postgres)
	}

	useCache := preCheckCache(cacheDir)
	cachePath := filepath.Join(cacheDir, fmt.Sprintf("%s.%s.yaml", c.Map.GetDb(), c.Map.Col))
	if useCache {
		if m, err := LoadFile(cachePath); err == nil {
			log.Infof("load map from cache %s", cachePath)
			return m, nil
		}
	}
	log.Infof("start fetching from %s.%s", c.Map.DB, c.Map.Col)
	m, err := loadMongo(ctx, c.URI, c.Map)
	if err != nil {
		return nil, err
	}
	log.Infof("finish fetching from %s.%s", c.Map.DB, c.Map.Col)
	if useCache {
		if err := SaveFile(cachePath, m); err != nil {
			log.Warnf("failed to write cache %s: %v", cachePath, err)
		}
	}
	return m, nil
}

// LoadFile 从YAML文件读取路网
func LoadFile(path string) (*MapData, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load map from file: %w", err)
	}
	var m MapData
	if err := yaml.UnmarshalStrict(file, &m); err != nil {
		return nil, fmt.Errorf("failed to parse map file %s: %w", path, err)
	}
	return &m, nil
}

// SaveFile 将路网写入YAML文件
func SaveFile(path string, m *MapData) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// preCheckCache 预检查缓存目录
// 返回：true表示启用缓存，false表示禁用缓存
func preCheckCache(cacheDir string) bool {
	if cacheDir == "" {
		log.Info("disable input cache")
		return false
	}
	if stat, err := os.Stat(cacheDir); err == nil && stat.IsDir() {
		log.Infof("enable input cache at %s", cacheDir)
		return true
	}
	log.Errorf("disable input cache because invalid dir %s (not exist or file)", cacheDir)
	return false
}
