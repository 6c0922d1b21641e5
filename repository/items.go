package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kapsul/logger"
	"kapsul/model"
	"kapsul/utils"
)

type ItemsRepo struct {
	MongoCollection *mongo.Collection
}

func GetItemsRepo(client *mongo.Client) *ItemsRepo {
	return &ItemsRepo{
		MongoCollection: client.Database(utils.DatabaseName()).Collection("items"),
	}
}

// ItemFilter narrows the store-side query. Everything beyond completion
// state is filtered client-side by the query engine.
type ItemFilter struct {
	IsCompleted *bool
}

// CreateItem inserts a new item. The id, timestamps and default flags are
// assigned here; user_id must already be set.
func (r *ItemsRepo) CreateItem(item *model.Item) error {
	if item.UserID == "" {
		return errors.New("user ID is required")
	}
	if !item.Type.IsValid() {
		return errors.New("invalid item type")
	}

	if item.ID == "" {
		item.ID = utils.GenerateID()
	}
	item.IsPinned = false
	item.IsCompleted = false
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt

	_, err := r.MongoCollection.InsertOne(context.Background(), item)
	return err
}

// GetItem retrieves a specific item owned by the user
func (r *ItemsRepo) GetItem(itemID string, userID string) (*model.Item, error) {
	var item model.Item
	err := r.MongoCollection.FindOne(context.Background(),
		bson.M{"_id": itemID, "user_id": userID}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("item not found")
		}
		return nil, err
	}
	return &item, nil
}

// GetUserItems retrieves the user's items, newest first. The filter's
// completion predicate is applied store-side when present.
func (r *ItemsRepo) GetUserItems(userID string, filter ItemFilter) ([]*model.Item, error) {
	query := bson.M{"user_id": userID}
	if filter.IsCompleted != nil {
		query["is_completed"] = *filter.IsCompleted
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.MongoCollection.Find(context.Background(), query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	var items []*model.Item
	if err = cursor.All(context.Background(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItem applies a partial update to an item. updated_at is bumped in
// the same mutation.
func (r *ItemsRepo) UpdateItem(itemID string, userID string, fields bson.M) error {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	result, err := r.MongoCollection.UpdateOne(context.Background(),
		bson.M{"_id": itemID, "user_id": userID},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return errors.New("item not found")
	}
	return nil
}

// DeleteItem removes an item. Deletion is terminal; there is no
// tombstone.
func (r *ItemsRepo) DeleteItem(itemID string, userID string) error {
	result, err := r.MongoCollection.DeleteOne(context.Background(),
		bson.M{"_id": itemID, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errors.New("item not found")
	}
	return nil
}

// TogglePin flips the pinned flag of an item
func (r *ItemsRepo) TogglePin(itemID string, userID string) error {
	item, err := r.GetItem(itemID, userID)
	if err != nil {
		return err
	}
	return r.UpdateItem(itemID, userID, bson.M{"is_pinned": !item.IsPinned})
}

// SetCompleted sets the completion flag of an item
func (r *ItemsRepo) SetCompleted(itemID string, userID string, completed bool) error {
	return r.UpdateItem(itemID, userID, bson.M{"is_completed": completed})
}

// CountUserItems counts the number of items for a user
func (r *ItemsRepo) CountUserItems(userID string) (int, error) {
	count, err := r.MongoCollection.CountDocuments(context.Background(),
		bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// CountItemsByType returns per-type item counts for a user
func (r *ItemsRepo) CountItemsByType(userID string) (map[model.ItemType]int, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "user_id", Value: userID}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.MongoCollection.Aggregate(context.Background(), pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	counts := make(map[model.ItemType]int)
	for cursor.Next(context.Background()) {
		var row struct {
			Type  model.ItemType `bson:"_id"`
			Count int            `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Type] = row.Count
	}
	return counts, cursor.Err()
}

// GetAllTags returns the distinct tags across a user's items
func (r *ItemsRepo) GetAllTags(userID string) ([]string, error) {
	values, err := r.MongoCollection.Distinct(context.Background(),
		"tags", bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(values))
	for _, v := range values {
		if tag, ok := v.(string); ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// Subscribe emits the user's current item list, then re-emits it whenever
// the items collection changes. Delete events carry no full document, so
// every event triggers a re-query rather than filtering the stream by
// owner. The returned function cancels the subscription.
func (r *ItemsRepo) Subscribe(ctx context.Context, userID string, filter ItemFilter, onSnapshot func([]*model.Item)) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)

	items, err := r.GetUserItems(userID, filter)
	if err != nil {
		cancel()
		return nil, err
	}
	onSnapshot(items)

	stream, err := r.MongoCollection.Watch(streamCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			snapshot, err := r.GetUserItems(userID, filter)
			if err != nil {
				logger.L.Warn("snapshot re-query failed",
					logger.String("user_id", userID), logger.Error(err))
				continue
			}
			onSnapshot(snapshot)
		}
	}()

	return cancel, nil
}
