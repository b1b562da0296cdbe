package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Sentinel errors returned by repositories. Flows branch on these instead of
// gorm internals.
var (
	ErrDuplicate = errors.New("duplicate username or email")
	ErrNotFound  = errors.New("record not found")
)

// User is the persisted credential record. Records are immutable once
// created: there is no re-enrollment or profile edit.
type User struct {
	ID            uint            `gorm:"primaryKey"`
	Username      string          `gorm:"column:username;uniqueIndex;size:50;not null"`
	Email         string          `gorm:"column:email;uniqueIndex;size:255;not null"`
	PasswordHash  string          `gorm:"column:password_hash;size:255;not null"`
	FaceEmbedding pgvector.Vector `gorm:"column:face_embedding;type:vector(128);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (User) TableName() string {
	return "users"
}

// UserRepository provides persistence APIs for credential records.
// The database's unique indexes, not the application pre-check, are the
// source of truth for username/email uniqueness.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository instance.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// AutoMigrate ensures the pgvector extension and schema are available.
func (r *UserRepository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).AutoMigrate(&User{}, &AuthEvent{})
}

// Create inserts a fully formed record. A concurrent insert with the same
// username or email loses the race here and gets ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindByUsername retrieves a record by its exact username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// UsernameOrEmailTaken reports whether any record holds the given username or
// email. This is the fast-path pre-check; Create still decides races.
func (r *UserRepository) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns all records with only their public fields populated. The
// password hash and embedding never leave the database on this path.
func (r *UserRepository) List(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Select("id", "username", "email", "created_at").
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// translateError maps gorm sentinels to repository sentinels. Requires the
// gorm TranslateError option so driver duplicate-key errors surface as
// gorm.ErrDuplicatedKey.
func translateError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return err
	}
}
