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

// userDoc stores the role by id only; the role document is loaded on read.
// EmailLower backs the unique, case-insensitive email index.
type userDoc struct {
	ID           int64     `bson:"_id"`
	Email        string    `bson:"email"`
	EmailLower   string    `bson:"email_lower"`
	Name         string    `bson:"name"`
	PasswordHash string    `bson:"password_hash"`
	RoleID       *int64    `bson:"role_id"`
	IsActive     bool      `bson:"is_active"`
	IsStaff      bool      `bson:"is_staff"`
	IsSuperuser  bool      `bson:"is_superuser"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Email:        u.Email,
		EmailLower:   domain.EmailKey(u.Email),
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		RoleID:       u.RoleID(),
		IsActive:     u.IsActive,
		IsStaff:      u.IsStaff,
		IsSuperuser:  u.IsSuperuser,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toDomain(role *domain.Role) *domain.User {
	return &domain.User{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		Role:         role,
		IsActive:     d.IsActive,
		IsStaff:      d.IsStaff,
		IsSuperuser:  d.IsSuperuser,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type UserRepository struct {
	db    *mongo.Database
	col   *mongo.Collection
	roles *RoleRepository
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, col: db.Collection(collectionUsers), roles: NewRoleRepository(db)}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionUsers)
	if err != nil {
		return nil, err
	}
	doc := newUserDoc(u)
	doc.ID = id

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	// A role deleted concurrently leaves the new user dangling; undo the insert.
	if doc.RoleID != nil {
		if _, err := r.roles.FindByID(ctx, *doc.RoleID); err != nil {
			if errors.Is(err, domain.ErrRoleNotFound) {
				if _, derr := r.col.DeleteOne(ctx, bson.M{"_id": doc.ID}); derr != nil {
					return nil, fmt.Errorf("undo user insert: %w", derr)
				}
			}
			return nil, err
		}
	}
	return doc.toDomain(u.Role), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email_lower": domain.EmailKey(email)})
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	roles, err := r.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		var role *domain.Role
		if d.RoleID != nil {
			role = byID[*d.RoleID]
		}
		users = append(users, d.toDomain(role))
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := newUserDoc(u)
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"email":         doc.Email,
		"email_lower":   doc.EmailLower,
		"name":          doc.Name,
		"password_hash": doc.PasswordHash,
		"role_id":       doc.RoleID,
		"is_active":     doc.IsActive,
		"is_staff":      doc.IsStaff,
		"is_superuser":  doc.IsSuperuser,
		"updated_at":    doc.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return doc.toDomain(u.Role), nil
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

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	var role *domain.Role
	if doc.RoleID != nil {
		found, err := r.roles.findOne(ctx, bson.M{"_id": *doc.RoleID})
		switch {
		case err == nil:
			role = found
		case !errors.Is(err, domain.ErrRoleNotFound):
			return nil, err
		}
	}
	return doc.toDomain(role), nil
}
