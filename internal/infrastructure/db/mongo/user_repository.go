package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
)

const (
	collectionUsers    = "users"
	collectionCounters = "counters"

	indexUsername = "users_username_key"
	indexEmail    = "users_email_key"
)

// UserRepository implements ports.UserRepository using MongoDB. Numeric ids
// come from a sequence document in the counters collection.
type UserRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		col:      db.Collection(collectionUsers),
		counters: db.Collection(collectionCounters),
	}
}

var _ ports.UserRepository = (*UserRepository)(nil)

type userDocument struct {
	ID           int64     `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Description  *string   `bson:"description"`
	Avatar       *string   `bson:"avatar"`
	IsSuperuser  bool      `bson:"is_superuser"`
	DateJoined   time.Time `bson:"date_joined"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toDocument(u *domain.User) userDocument {
	return userDocument{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Description:  u.Description,
		Avatar:       u.Avatar,
		IsSuperuser:  u.IsSuperuser,
		DateJoined:   u.DateJoined.UTC(),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Description:  d.Description,
		Avatar:       d.Avatar,
		IsSuperuser:  d.IsSuperuser,
		DateJoined:   d.DateJoined.UTC(),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": collectionUsers},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next user id: %w", err)
	}
	return counter.Seq, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := toDocument(user)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, mapWriteError(err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	updated := *user
	updated.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"username":      updated.Username,
		"email":         updated.Email,
		"password_hash": updated.PasswordHash,
		"description":   updated.Description,
		"avatar":        updated.Avatar,
		"is_superuser":  updated.IsSuperuser,
		"updated_at":    updated.UpdatedAt,
	}})
	if err != nil {
		return nil, mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return &updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, sort := listQuery(filter)
	cur, err := r.col.Find(ctx, query, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	users := make([]*domain.User, 0)
	for cur.Next(ctx) {
		var doc userDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func listQuery(filter ports.ListUsersFilter) (bson.M, bson.D) {
	query := bson.M{}
	switch {
	case filter.ExcludeSuperusers && filter.IncludeID != 0:
		query["$or"] = bson.A{bson.M{"is_superuser": false}, bson.M{"_id": filter.IncludeID}}
	case filter.ExcludeSuperusers:
		query["is_superuser"] = false
	}
	if filter.OnlyID != 0 {
		query["_id"] = filter.OnlyID
	}

	order := filter.Order
	if order == "" {
		order = domain.DefaultUserOrder
	}
	field, desc := order.Field()
	switch field {
	case "date_joined", "username":
	case "id":
		field = "_id"
	default:
		field, desc = "date_joined", true
	}
	dir := 1
	if desc {
		dir = -1
	}

	sort := bson.D{{Key: field, Value: dir}}
	if field != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: dir})
	}
	return query, sort
}

// EnsureIndexes creates the unique indexes that back username/email
// uniqueness, plus the listing index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName(indexUsername).SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(indexEmail).SetUnique(true)},
		{Keys: bson.D{{Key: "date_joined", Value: -1}}},
	}

	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	return nil
}

// mapWriteError turns duplicate-key errors on the unique indexes into the
// domain's "taken" errors.
func mapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, indexEmail):
			return domain.ErrEmailTaken
		case strings.Contains(msg, indexUsername):
			return domain.ErrUsernameTaken
		}
	}
	return fmt.Errorf("write user: %w", err)
}
