package input

import (
	"context"
	"fmt"

	"github.com/tsinghua-fib-lab/roadgraph-sim-oss/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// loadMongo 从MongoDB下载路网
// 说明：节点与道路分别存放在{col}_nodes与{col}_roads集合中，按id升序读取
func loadMongo(ctx context.Context, uri string, path config.InputPath) (*MapData, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(path.GetDb())
	m := &MapData{}
	if err := findAll(ctx, db.Collection(path.GetNodeColl()), &m.Nodes); err != nil {
		return nil, err
	}
	if err := findAll(ctx, db.Collection(path.GetRoadColl()), &m.Roads); err != nil {
		return nil, err
	}
	return m, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, out *[]T) error {
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return fmt.Errorf("mongo find %s: %w", coll.Name(), err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("mongo decode %s: %w", coll.Name(), err)
	}
	return nil
}
