package pipeline

import (
	"context"
	"os"
	"testing"
	"time"

	"go-ecommerce/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// liveDB connects to the server in MONGO_URI and returns a scratch database
// that is dropped when the test ends.
func liveDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("go_ecommerce_pipeline_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func runOrders(t *testing.T, db *mongo.Database, o OrderOptions) OrderFacet {
	t.Helper()
	ctx := context.Background()

	cur, err := db.Collection("orders").Aggregate(ctx, Orders(o))
	require.NoError(t, err)
	var out []OrderFacet
	require.NoError(t, cur.All(ctx, &out))
	require.Len(t, out, 1)
	return out[0]
}

func TestOrdersPipelineAgainstServer(t *testing.T) {
	db := liveDB(t)
	ctx := context.Background()

	boots, scarf := primitive.NewObjectID(), primitive.NewObjectID()
	bootsBlack, scarfRed := primitive.NewObjectID(), primitive.NewObjectID()
	_, err := db.Collection(ProductsCollection).InsertMany(ctx, []interface{}{
		bson.M{"_id": boots, "product_name": "Leather Boots", "product_imgs": bson.A{"boots.png"},
			"product_variants": bson.A{bson.M{"_id": bootsBlack, "variant_name": "Black", "variant_img": "black.png"}}},
		bson.M{"_id": scarf, "product_name": "Wool Scarf", "product_imgs": bson.A{"scarf.png"},
			"product_variants": bson.A{bson.M{"_id": scarfRed, "variant_name": "Red", "variant_img": "red.png"}}},
	})
	require.NoError(t, err)

	owner, other := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	order := func(code string, user primitive.ObjectID, at time.Time, phone string, lines ...models.LineItem) models.Order {
		return models.Order{
			ID:           primitive.NewObjectID(),
			OrderID:      code,
			UserID:       user,
			Buyer:        models.Buyer{Name: "Ann", PhoneNumber: phone},
			Products:     lines,
			ShippingCost: 5,
			Status:       models.StatusUnpaid,
			CreatedAt:    at,
			UpdatedAt:    at,
		}
	}
	line := func(product, variant primitive.ObjectID, qty int, price float64) models.LineItem {
		return models.LineItem{ProductID: product, VariantID: variant, Quantity: qty, UnitPrice: price}
	}

	docs := []interface{}{
		order("ORD-A1", owner, base, "0901234567", line(boots, bootsBlack, 2, 50), line(scarf, scarfRed, 1, 10)),
		order("ORD-A2", owner, base.Add(time.Hour), "0901234567", line(scarf, scarfRed, 3, 10)),
		order("ORD-B1", other, base.Add(2*time.Hour), "0911111111", line(boots, bootsBlack, 1, 50)),
	}
	_, err = db.Collection("orders").InsertMany(ctx, docs)
	require.NoError(t, err)

	t.Run("owner listing pages newest first", func(t *testing.T) {
		f := runOrders(t, db, OrderOptions{OwnerID: &owner, SortDesc: true, Limit: 1})

		assert.Equal(t, int64(2), f.Count())
		require.Len(t, f.Orders, 1)
		assert.Equal(t, "ORD-A2", f.Orders[0].OrderID)
	})

	t.Run("product name keeps every line of a matching order", func(t *testing.T) {
		f := runOrders(t, db, OrderOptions{OwnerID: &owner, ProductName: "boots"})

		require.Len(t, f.Orders, 1)
		assert.Equal(t, "ORD-A1", f.Orders[0].OrderID)
		require.Len(t, f.Orders[0].Products, 2)
		names := []string{f.Orders[0].Products[0].ProductName, f.Orders[0].Products[1].ProductName}
		assert.ElementsMatch(t, []string{"Leather Boots", "Wool Scarf"}, names)
	})

	t.Run("tracking computes costs", func(t *testing.T) {
		f := runOrders(t, db, OrderOptions{CodePrefix: "ord-a1", PhoneNumber: "0901234567", WithCosts: true})

		require.Len(t, f.Orders, 1)
		got := f.Orders[0]
		assert.Equal(t, 110.0, got.TotalProductsCost)
		assert.Equal(t, 115.0, got.FinalCost)
		for _, l := range got.Products {
			assert.Equal(t, l.UnitPrice*float64(l.Quantity), l.TotalPrice)
			assert.NotEmpty(t, l.VariantName)
		}
	})

	t.Run("tracking needs the matching phone", func(t *testing.T) {
		f := runOrders(t, db, OrderOptions{CodePrefix: "ORD-A", PhoneNumber: "0911111111", WithCosts: true})

		assert.Empty(t, f.Orders)
		assert.Zero(t, f.Count())
	})
}
