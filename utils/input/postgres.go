package input

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// loadPostgres 从PostgreSQL读取路网
// 说明：要求存在nodes(id, x, y)与roads(id, from_node, to_node, capacity, speed_limit, one_way, bend, segments)两张表，one_way可为NULL
func loadPostgres(ctx context.Context, dsn string) (*MapData, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	defer pool.Close()

	m := &MapData{}
	rows, err := pool.Query(ctx, `SELECT id, x, y FROM nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query nodes: %w", err)
	}
	for rows.Next() {
		var n NodeData
		if err := rows.Scan(&n.ID, &n.X, &n.Y); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: failed to scan node: %w", err)
		}
		m.Nodes = append(m.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read nodes: %w", err)
	}

	rows, err = pool.Query(ctx, `
		SELECT id, from_node, to_node, capacity, speed_limit, one_way, bend, segments
		FROM roads
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query roads: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r RoadData
		if err := rows.Scan(&r.ID, &r.From, &r.To, &r.Capacity, &r.SpeedLimit, &r.OneWay, &r.Bend, &r.Segments); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan road: %w", err)
		}
		m.Roads = append(m.Roads, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read roads: %w", err)
	}
	return m, nil
}
