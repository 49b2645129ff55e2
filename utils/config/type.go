package config

// InputPath 指定路网数据来源的配置（文件、MongoDB、PostgreSQL、随机生成）
// 功能：定义路网输入路径
// 说明：优先级 File > Random > PostgreSQL > MongoDB
type InputPath struct {
	DB     string     `yaml:"db,omitempty"`     // 数据库名（MongoDB）
	Col    string     `yaml:"col,omitempty"`    // 集合名前缀（MongoDB），节点与道路分别存放在{col}_nodes与{col}_roads中
	File   string     `yaml:"file,omitempty"`   // YAML路网文件路径
	Random *RandomMap `yaml:"random,omitempty"` // 随机生成路网
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetNodeColl 获取节点集合名
func (p InputPath) GetNodeColl() string {
	return p.Col + "_nodes"
}

// GetRoadColl 获取道路集合名
func (p InputPath) GetRoadColl() string {
	return p.Col + "_roads"
}

// RandomMap 随机路网生成参数
type RandomMap struct {
	Nodes    int     `yaml:"nodes"`              // 节点数
	Roads    int     `yaml:"roads"`              // 道路数（有向）
	Width    float64 `yaml:"width"`              // 节点分布范围宽度
	Height   float64 `yaml:"height"`             // 节点分布范围高度
	Capacity int32   `yaml:"capacity,omitempty"` // 道路容量
	Bend     float64 `yaml:"bend,omitempty"`     // 最大弯曲程度
}

// Input 指定模拟器所有输入数据的配置项
type Input struct {
	URI      string    `yaml:"uri,omitempty"`      // MongoDB连接字符串
	Postgres string    `yaml:"postgres,omitempty"` // PostgreSQL连接字符串
	Map      InputPath `yaml:"map"`                // 路网
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 模拟器控制配置
type Control struct {
	Step        ControlStep `yaml:"step"`
	Seed        uint64      `yaml:"seed,omitempty"`          // 随机种子
	Workers     int         `yaml:"workers,omitempty"`       // 并行更新的协程数，0表示GOMAXPROCS
	OneWayRatio float64     `yaml:"one_way_ratio,omitempty"` // 未指定单行标记的道路被设为单行的概率
	DebugRoute  bool        `yaml:"debug_route,omitempty"`   // 输出路径规划调试日志
}

// CarSpawn 指定生成的单辆车
type CarSpawn struct {
	Road        int32   `yaml:"road"`        // 初始道路
	Velocity    float64 `yaml:"velocity"`    // 速度
	Destination int32   `yaml:"destination"` // 目的节点
}

// Cars 车辆生成配置
type Cars struct {
	Random      int        `yaml:"random,omitempty"`       // 随机生成的车辆数
	VelocityMin float64    `yaml:"velocity_min,omitempty"` // 随机车辆速度下限
	VelocityMax float64    `yaml:"velocity_max,omitempty"` // 随机车辆速度上限
	List        []CarSpawn `yaml:"list,omitempty"`         // 指定车辆
}

// Server 对外服务配置
type Server struct {
	Listen string `yaml:"listen,omitempty"` // 监听地址，为空则不启动
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`            // 输入
	Control Control `yaml:"control"`          // 模拟过程控制
	Cars    Cars    `yaml:"cars,omitempty"`   // 车辆
	Server  Server  `yaml:"server,omitempty"` // 对外服务
}
