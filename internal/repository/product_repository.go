package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bharatlinker/product-service/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(client *mongo.Client, dbName, collName string) *ProductRepository {
	return &ProductRepository{
		coll: client.Database(dbName).Collection(collName),
	}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.Images == nil {
		product.Images = []string{}
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, product)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = id
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	normalize(&product)
	return &product, nil
}

// Update applies a partial update and returns the updated document.
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, update domain.ProductUpdate) (*domain.Product, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.DiscountedPrice != nil {
		set["discountedPrice"] = *update.DiscountedPrice
	}
	if update.QuantityAvailable != nil {
		set["quantityAvailable"] = *update.QuantityAvailable
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Brand != nil {
		set["brand"] = update.Brand
	}
	if update.Keywords != nil {
		set["keywords"] = update.Keywords
	}
	if update.PinCodes != nil {
		set["pinCodes"] = update.PinCodes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product domain.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	normalize(&product)
	return &product, nil
}

// SetImages replaces the image list of a product.
func (r *ProductRepository) SetImages(ctx context.Context, id primitive.ObjectID, images []string) error {
	if images == nil {
		images = []string{}
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"images": images, "updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to update images: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) FindByShop(ctx context.Context, shopID primitive.ObjectID, page, limit int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSkip(int64(limit) * int64(page-1)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"shop": shopID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by shop: %w", err)
	}
	return decodeAll(ctx, cursor)
}

// Find executes a composed listing query once.
func (r *ProductRepository) Find(ctx context.Context, query *ProductQuery) ([]domain.Product, error) {
	filter, opts, err := query.Build()
	if err != nil {
		return nil, err
	}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return decodeAll(ctx, cursor)
}

// Count reports the total matching documents for a listing query. It uses
// the same filter predicates without the pagination clauses.
func (r *ProductRepository) Count(ctx context.Context, query *ProductQuery) (int64, error) {
	if _, _, err := query.Build(); err != nil {
		return 0, err
	}
	total, err := r.coll.CountDocuments(ctx, query.Filter())
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// SampleByPincodes returns up to limit random products deliverable to any
// of the given pincodes.
func (r *ProductRepository) SampleByPincodes(ctx context.Context, pincodes []int, limit int) ([]domain.Product, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"pinCodes": bson.M{"$in": pincodes}}}},
		bson.D{{Key: "$sample", Value: bson.M{"size": limit}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sample products: %w", err)
	}
	return decodeAll(ctx, cursor)
}

func (r *ProductRepository) CountByPincodes(ctx context.Context, pincodes []int) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{"pinCodes": bson.M{"$in": pincodes}})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]domain.Product, error) {
	defer cursor.Close(ctx)
	products := []domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	for i := range products {
		normalize(&products[i])
	}
	return products, nil
}

// normalize keeps list fields non-nil so responses never carry null where
// a list is expected.
func normalize(p *domain.Product) {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Brand == nil {
		p.Brand = []string{}
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.PinCodes == nil {
		p.PinCodes = []int{}
	}
}
