package entity

import (
	"errors"
	"fmt"
)

// NodeID 路口/端点ID
type NodeID int32

// RoadID 道路ID
type RoadID int32

// CarID 车辆ID
type CarID int32

func (id NodeID) String() string { return fmt.Sprintf("Node %d", int32(id)) }
func (id RoadID) String() string { return fmt.Sprintf("Road %d", int32(id)) }
func (id CarID) String() string  { return fmt.Sprintf("Car %d", int32(id)) }

var (
	// ErrNotFound ID查找失败，调用方应视为构建错误
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID 重复的ID
	ErrDuplicateID = errors.New("duplicated id")
	// ErrNodeInUse 仍有道路引用该节点
	ErrNodeInUse = errors.New("node still referenced by road")
	// ErrInvalidRoad 道路参数不合法（容量、折线点数等）
	ErrInvalidRoad = errors.New("invalid road")
)
