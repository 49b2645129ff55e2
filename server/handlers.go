package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/entity"
	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/task"
)

var errNotInitialized = errors.New("simulation not initialized")

// SpawnBody POST /api/v1/cars 的请求体
type SpawnBody struct {
	Road        int32   `json:"road"`
	Velocity    float64 `json:"velocity"`
	Destination int32   `json:"destination"`
}

func (s *Server) snapshot() (*task.Snapshot, error) {
	snap := s.sim.Snapshot()
	if snap == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, errNotInitialized.Error())
	}
	return snap, nil
}

func (s *Server) health(c *fiber.Ctx) error {
	t, step := s.sim.Clock().Now()
	return c.JSON(fiber.Map{
		"status": "ok",
		"step":   step,
		"t":      t,
	})
}

func (s *Server) getSnapshot(c *fiber.Ctx) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

// getCars 按ids=1,2,3查询车辆，不带ids时返回全部
func (s *Server) getCars(c *fiber.Ctx) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	var ids []entity.CarID
	if raw := c.Query("ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid car id "+strconv.Quote(part))
			}
			ids = append(ids, entity.CarID(id))
		}
	}
	found, missing := snap.FindCars(ids)
	return c.JSON(fiber.Map{
		"step":    snap.Step,
		"cars":    found,
		"missing": missing,
	})
}

func (s *Server) postCar(c *fiber.Ctx) error {
	var body SpawnBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	err := s.sim.RequestSpawn(task.SpawnRequest{
		Road:        entity.RoadID(body.Road),
		Velocity:    body.Velocity,
		Destination: entity.NodeID(body.Destination),
	})
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return err
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": true})
}

func (s *Server) getAdjacencyDOT(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/vnd.graphviz; charset=utf-8")
	return c.SendString(s.sim.Graph().AdjacencyDOT())
}
