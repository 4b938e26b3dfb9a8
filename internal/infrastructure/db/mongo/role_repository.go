package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

type roleDoc struct {
	ID          int64     `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	IsActive    bool      `bson:"is_active"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d roleDoc) toDomain() *domain.Role {
	return &domain.Role{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type RoleRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{db: db, col: db.Collection(collectionRoles)}
}

// GetOrCreate looks the name up and upserts it when missing. A concurrent
// insert of the same name trips the unique index; the lookup is then retried
// once and returns the winner's row.
func (r *RoleRepository) GetOrCreate(ctx context.Context, name string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	role, err := r.findOne(ctx, bson.M{"name": name})
	if err == nil || !errors.Is(err, domain.ErrRoleNotFound) {
		return role, err
	}

	id, err := nextID(ctx, r.db, collectionRoles)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var doc roleDoc
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": roleDoc{ID: id, Name: name, IsActive: true, CreatedAt: now, UpdatedAt: now}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		return r.findOne(ctx, bson.M{"name": name})
	}
	if err != nil {
		return nil, fmt.Errorf("upsert role: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionRoles)
	if err != nil {
		return nil, err
	}
	doc := roleDoc{
		ID:          id,
		Name:        role.Name,
		Description: role.Description,
		IsActive:    role.IsActive,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	var docs []roleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}

	roles := make([]*domain.Role, 0, len(docs))
	for _, d := range docs {
		roles = append(roles, d.toDomain())
	}
	return roles, nil
}

func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": role.ID}, bson.M{"$set": bson.M{
		"name":        role.Name,
		"description": role.Description,
		"is_active":   role.IsActive,
		"updated_at":  role.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrRoleNotFound
	}
	out := *role
	return &out, nil
}

// Delete refuses while any user document references the role. References are
// counted again after the delete; a user assigned in between puts the role
// document back and the call fails with domain.ErrRoleInUse.
func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	inUse, err := r.referenced(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrRoleInUse
	}

	var doc roleDoc
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrRoleNotFound
		}
		return fmt.Errorf("delete role: %w", err)
	}

	inUse, err = r.referenced(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("restore role %d: %w", id, err)
		}
		return domain.ErrRoleInUse
	}
	return nil
}

func (r *RoleRepository) referenced(ctx context.Context, id int64) (bool, error) {
	n, err := r.db.Collection(collectionUsers).CountDocuments(ctx, bson.M{"role_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count role users: %w", err)
	}
	return n > 0, nil
}

func (r *RoleRepository) findOne(ctx context.Context, filter bson.M) (*domain.Role, error) {
	var doc roleDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return doc.toDomain(), nil
}
