package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

const (
	defaultInterval    = 1.0
	defaultVelocityMin = 5.0
	defaultVelocityMax = 15.0
	defaultCapacity    = 10
)

// RuntimeConfig 运行时配置
// 功能：存储补齐默认值并校验后的配置
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：补齐默认值后校验配置
// 参数：config-原始配置对象
// 返回：运行时配置，配置不合法时返回错误
// 算法说明：
// 1. 步长为0时取1秒，随机车辆速度范围为空时取[5, 15]，随机路网容量为0时取10
// 2. 校验步数、速度范围、单行比例与车辆列表
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	if config.Control.Step.Interval == 0 {
		config.Control.Step.Interval = defaultInterval
	}
	if config.Cars.VelocityMin == 0 && config.Cars.VelocityMax == 0 {
		config.Cars.VelocityMin, config.Cars.VelocityMax = defaultVelocityMin, defaultVelocityMax
	}
	if r := config.Input.Map.Random; r != nil && r.Capacity == 0 {
		rm := *r
		rm.Capacity = defaultCapacity
		config.Input.Map.Random = &rm
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeConfig{
		All: config,
		C:   config.Control,
	}, nil
}

// Validate 校验配置
func (c Config) Validate() error {
	var errs []error
	step := c.Control.Step
	if step.Total <= 0 {
		errs = append(errs, fmt.Errorf("control.step.total must be positive, got %d", step.Total))
	}
	if step.Start < 0 {
		errs = append(errs, fmt.Errorf("control.step.start must not be negative, got %d", step.Start))
	}
	if step.Interval <= 0 {
		errs = append(errs, fmt.Errorf("control.step.interval must be positive, got %v", step.Interval))
	}
	if r := c.Control.OneWayRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("control.one_way_ratio must be in [0, 1], got %v", r))
	}
	if c.Control.Workers < 0 {
		errs = append(errs, fmt.Errorf("control.workers must not be negative, got %d", c.Control.Workers))
	}
	if c.Cars.Random < 0 {
		errs = append(errs, fmt.Errorf("cars.random must not be negative, got %d", c.Cars.Random))
	}
	if c.Cars.VelocityMin < 0 || c.Cars.VelocityMin > c.Cars.VelocityMax {
		errs = append(errs, fmt.Errorf("cars velocity range [%v, %v] is invalid", c.Cars.VelocityMin, c.Cars.VelocityMax))
	}
	for i, s := range c.Cars.List {
		if s.Velocity <= 0 {
			errs = append(errs, fmt.Errorf("cars.list[%d].velocity must be positive, got %v", i, s.Velocity))
		}
	}
	m := c.Input.Map
	if m.File == "" && m.Random == nil && c.Input.Postgres == "" && (c.Input.URI == "" || m.DB == "" || m.Col == "") {
		errs = append(errs, errors.New("input.map needs one of file, random, postgres or uri+db+col"))
	}
	if r := m.Random; r != nil && (r.Nodes < 2 || r.Roads < 1 || r.Width <= 0 || r.Height <= 0) {
		errs = append(errs, fmt.Errorf("input.map.random %+v needs nodes>=2, roads>=1 and a positive extent", *r))
	}
	return errors.Join(errs...)
}

// Load 读取配置
// 功能：从文件或Base64编码的数据中读取YAML配置
// 参数：path-配置文件路径，data-Base64编码的配置数据（path为空时使用）
// 返回：配置对象
// 说明：使用严格模式解析，未知字段视为错误
func Load(path, data string) (Config, error) {
	var c Config
	var file []byte
	var err error
	if path != "" {
		if file, err = os.ReadFile(path); err != nil {
			return c, fmt.Errorf("config file load err: %w", err)
		}
	} else if data != "" {
		if file, err = base64.StdEncoding.DecodeString(data); err != nil {
			return c, fmt.Errorf("config data load err: %w", err)
		}
	} else {
		return c, errors.New("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return c, fmt.Errorf("config file load err: %w", err)
	}
	return c, nil
}
