package store

import (
	"context"
	"time"

	"go-ecommerce/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserStore struct {
	coll    *mongo.Collection
	nowFunc func() time.Time
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(UsersCollection), nowFunc: time.Now}
}

// Create inserts u and sets its id and timestamps.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	const op = "store.UserStore.Create"

	now := s.nowFunc().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	res, err := s.coll.InsertOne(ctx, u)
	if err != nil {
		return wrap(op, err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "store.UserStore.FindByEmail"

	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"user_email": email}).Decode(&u); err != nil {
		return nil, wrap(op, err)
	}
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	const op = "store.UserStore.FindByID"

	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, wrap(op, err)
	}
	return &u, nil
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const op = "store.UserStore.ExistsByEmail"

	n, err := s.coll.CountDocuments(ctx, bson.M{"user_email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, wrap(op, err)
	}
	return n > 0, nil
}

// MarkVerified flips the verification flag of an unverified user. It returns
// ErrNotFound when no unverified user has that id.
func (s *UserStore) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	const op = "store.UserStore.MarkVerified"

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "is_email_verified": false},
		bson.M{"$set": bson.M{"is_email_verified": true, "updatedAt": s.nowFunc().UTC()}},
	)
	if err != nil {
		return wrap(op, err)
	}
	if res.MatchedCount == 0 {
		return wrap(op, mongo.ErrNoDocuments)
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token.
func (s *UserStore) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	const op = "store.UserStore.SetRefreshToken"

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"refresh_token": token, "updatedAt": s.nowFunc().UTC()}},
	)
	if err != nil {
		return wrap(op, err)
	}
	if res.MatchedCount == 0 {
		return wrap(op, mongo.ErrNoDocuments)
	}
	return nil
}

// SwapRefreshToken replaces old with next only if old is still the stored
// token. It returns ErrNotFound when old was already replaced.
func (s *UserStore) SwapRefreshToken(ctx context.Context, id primitive.ObjectID, old, next string) error {
	const op = "store.UserStore.SwapRefreshToken"

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "refresh_token": old},
		bson.M{"$set": bson.M{"refresh_token": next, "updatedAt": s.nowFunc().UTC()}},
	)
	if err != nil {
		return wrap(op, err)
	}
	if res.MatchedCount == 0 {
		return wrap(op, mongo.ErrNoDocuments)
	}
	return nil
}

// UpsertFederated returns the user owning the profile's email, creating a
// federated account when none exists. A pending local account was never proven
// by its registrant, so it is taken over: its password and refresh token are
// dropped and it becomes the provider's account. Verified local accounts keep
// their credentials.
func (s *UserStore) UpsertFederated(ctx context.Context, u *models.User) (*models.User, error) {
	const op = "store.UserStore.UpsertFederated"

	now := s.nowFunc().UTC()
	takeover := bson.M{
		"$set": bson.M{
			"account":           u.Account,
			"is_email_verified": true,
			"updatedAt":         now,
		},
		"$unset": bson.M{"user_password": "", "refresh_token": ""},
	}
	pending := bson.M{"user_email": u.Email, "is_email_verified": false, "account.kind": models.AccountLocal}
	if _, err := s.coll.UpdateOne(ctx, pending, takeover); err != nil {
		return nil, wrap(op, err)
	}

	update := bson.M{
		"$set": bson.M{"is_email_verified": true, "updatedAt": now},
		"$setOnInsert": bson.M{
			"user_name": u.Name,
			"account":   u.Account,
			"user_role": u.Role,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.User
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"user_email": u.Email}, update, opts).Decode(&out); err != nil {
		return nil, wrap(op, err)
	}
	return &out, nil
}
