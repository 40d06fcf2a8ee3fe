package mongostore

import (
	"context"
	"errors"

	"restaurant-api/models"
	"restaurant-api/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	doc, err := orderToDoc(order)
	if err != nil {
		return err
	}
	_, err = s.orders.InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	n, err := s.orders.CountDocuments(ctx, bson.M{"orderNumber": orderNumber}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (s *Store) findOrder(ctx context.Context, filter bson.M) (*models.Order, error) {
	var doc orderDoc
	if err := s.orders.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	order, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.findOrder(ctx, bson.M{"_id": id})
}

func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.findOrder(ctx, bson.M{"orderNumber": orderNumber})
}

func orderFilterDoc(filter models.OrderFilter) bson.M {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}
	return query
}

func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "orderNumber", Value: -1}})
	cursor, err := s.orders.Find(ctx, orderFilterDoc(filter), opts)
	if err != nil {
		return nil, translate(err)
	}
	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.model()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// transitionUpdate sets the new status and appends the history entry in the
// same document write.
func transitionUpdate(to models.OrderStatus, change models.StatusChange) bson.M {
	return bson.M{
		"$set":  bson.M{"status": string(to), "updatedAt": change.CreatedAt},
		"$push": bson.M{"statusHistory": statusChangeToDoc(change)},
	}
}

func (s *Store) TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, change models.StatusChange) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc orderDoc
	err := s.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(from)},
		transitionUpdate(to, change),
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, countErr := s.orders.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		if countErr != nil {
			return nil, translate(countErr)
		}
		if n == 0 {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrStatusConflict
	}
	if err != nil {
		return nil, translate(err)
	}

	order, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.orders.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// statusTotalsPipeline groups orders per status; Decimal128 sums are exact.
var statusTotalsPipeline = mongo.Pipeline{
	{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$status"},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		{Key: "amount", Value: bson.D{{Key: "$sum", Value: "$totalAmount"}}},
	}}},
}

type statusTotalDoc struct {
	Status string               `bson:"_id"`
	Count  int64                `bson:"count"`
	Amount primitive.Decimal128 `bson:"amount"`
}

func (s *Store) StatusTotals(ctx context.Context) ([]models.StatusTotal, error) {
	cursor, err := s.orders.Aggregate(ctx, statusTotalsPipeline)
	if err != nil {
		return nil, translate(err)
	}
	var docs []statusTotalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	totals := make([]models.StatusTotal, 0, len(docs))
	for _, doc := range docs {
		amount, err := fromDecimal128(doc.Amount)
		if err != nil {
			return nil, err
		}
		totals = append(totals, models.StatusTotal{
			Status: models.OrderStatus(doc.Status),
			Count:  doc.Count,
			Amount: amount,
		})
	}
	return totals, nil
}
