package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog-admin/internal/models"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrVersionConflict = errors.New("product changed, reload and retry")
)

// ProductRepository is the row-store gateway for one product collection
// ("products" or "home_products").
type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(collection *mongo.Collection) *ProductRepository {
	return &ProductRepository{
		collection: collection,
	}
}

// Create inserts the product and fills in its store-assigned id. The
// image URL is never set at insert time; it is patched in after upload.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	product.ID = primitive.NewObjectID()
	product.Version = 1
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	if product.Thumbnails == nil {
		product.Thumbnails = models.ThumbnailList{}
	}

	_, err := r.collection.InsertOne(ctx, product)
	return errors.Wrap(err, "insert product")
}

// FindByID fetches one product.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var product models.Product
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "find product")
	}

	return &product, nil
}

// FindAll returns every row, newest first.
func (r *ProductRepository) FindAll(ctx context.Context) ([]*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer cursor.Close(ctx)

	products := make([]*models.Product, 0)
	if err = cursor.All(ctx, &products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// Update applies a partial $set patch and bumps the revision stamp.
func (r *ProductRepository) Update(ctx context.Context, id string, update bson.M) error {
	return r.update(ctx, id, update, nil)
}

// UpdateVersioned applies the patch only when the row still carries the
// expected revision. A live row with a different revision fails with
// ErrVersionConflict so that two operators cannot silently clobber each
// other's edits.
func (r *ProductRepository) UpdateVersioned(ctx context.Context, id string, expectedVersion int64, update bson.M) error {
	return r.update(ctx, id, update, &expectedVersion)
}

func (r *ProductRepository) update(ctx context.Context, id string, update bson.M, expectedVersion *int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	update["updated_at"] = time.Now()

	filter := bson.M{"_id": objID}
	if expectedVersion != nil {
		filter["version"] = *expectedVersion
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$set": update,
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return errors.Wrap(err, "update product")
	}

	if result.MatchedCount == 0 {
		if expectedVersion == nil {
			return ErrNotFound
		}
		// distinguish a stale revision from a missing row
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID})
		if err != nil {
			return errors.Wrap(err, "check product existence")
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	return nil
}

// Delete removes the row permanently. Stored assets are purged by the
// workflow before this is called.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
