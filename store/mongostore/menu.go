package mongostore

import (
	"context"
	"sort"

	"restaurant-api/models"
	"restaurant-api/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	doc, err := menuItemToDoc(item)
	if err != nil {
		return err
	}
	_, err = s.menu.InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	var doc menuItemDoc
	if err := s.menu.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	item, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func menuFilterDoc(filter models.MenuFilter) bson.M {
	query := bson.M{}
	if filter.Category != nil {
		query["category"] = string(*filter.Category)
	}
	if filter.Availability != nil {
		query["availability"] = *filter.Availability
	}
	return query
}

func (s *Store) ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := s.menu.Find(ctx, menuFilterDoc(filter), opts)
	if err != nil {
		return nil, translate(err)
	}
	var docs []menuItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]models.MenuItem, 0, len(docs))
	for _, doc := range docs {
		item, err := doc.model()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	doc, err := menuItemToDoc(item)
	if err != nil {
		return err
	}
	res, err := s.menu.UpdateOne(ctx, bson.M{"_id": item.ID}, bson.M{"$set": bson.M{
		"name":         doc.Name,
		"category":     doc.Category,
		"description":  doc.Description,
		"image":        doc.Image,
		"price":        doc.Price,
		"availability": doc.Availability,
		"updatedAt":    doc.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	res, err := s.menu.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DistinctCategories(ctx context.Context) ([]models.Category, error) {
	values, err := s.menu.Distinct(ctx, "category", bson.D{})
	if err != nil {
		return nil, translate(err)
	}
	categories := make([]models.Category, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			categories = append(categories, models.Category(name))
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories, nil
}
