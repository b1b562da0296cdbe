package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/face-auth/internal/embedder"
	"github.com/example/face-auth/internal/facematch"
	"github.com/example/face-auth/internal/imaging"
	"github.com/example/face-auth/internal/logging"
	"github.com/example/face-auth/internal/repository"
)

const userCacheTTL = time.Hour

// UserStore defines the persistence operations needed by the flows.
type UserStore interface {
	Create(ctx context.Context, user *repository.User) error
	FindByUsername(ctx context.Context, username string) (*repository.User, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context) ([]repository.User, error)
}

// EventStore records and aggregates auth events.
type EventStore interface {
	Save(ctx context.Context, event *repository.AuthEvent) error
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// TokenIssuer mints bearer tokens for an authenticated identity.
type TokenIssuer interface {
	Issue(username, email string) (string, error)
}

// AuthUseCase orchestrates the enrollment and verification flows.
type AuthUseCase struct {
	users          UserStore
	events         EventStore
	cache          Cache
	embedder       embedder.Client
	tokens         TokenIssuer
	logger         *zap.Logger
	threshold      float64
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewAuthUseCase constructs a new use case instance. threshold is the maximum
// cosine distance at which a fresh face still verifies against the enrolled
// embedding.
func NewAuthUseCase(users UserStore, events EventStore, cache Cache, embedderClient embedder.Client, tokens TokenIssuer, logger *zap.Logger, threshold float64) *AuthUseCase {
	return &AuthUseCase{
		users:          users,
		events:         events,
		cache:          cache,
		embedder:       embedderClient,
		tokens:         tokens,
		logger:         logger.Named("auth_usecase"),
		threshold:      threshold,
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// EnrollmentInput carries the signup form plus the raw face image upload.
type EnrollmentInput struct {
	Username string
	Email    string
	Password string
	Image    []byte
}

// SignInInput carries the signin form plus the raw face image upload.
type SignInInput struct {
	Username string
	Password string
	Image    []byte
}

// cachedUser is the JSON shape of a credential record in Redis.
type cachedUser struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Embedding    []float32 `json:"embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

func (c cachedUser) toUser() *repository.User {
	return &repository.User{
		ID:            c.ID,
		Username:      c.Username,
		Email:         c.Email,
		PasswordHash:  c.PasswordHash,
		FaceEmbedding: pgvector.NewVector(c.Embedding),
		CreatedAt:     c.CreatedAt,
	}
}

// Enroll runs the enrollment flow: uniqueness check, image decode, embedding
// extraction, password hash, atomic insert, token issuance. Nothing is
// persisted on any failure path.
func (uc *AuthUseCase) Enroll(ctx context.Context, in EnrollmentInput) (string, error) {
	requestID := uuid.NewString()
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	opLogger := logging.WithUser(logging.WithOperation(uc.logger, "usecase.enroll", requestID), username)

	if username == "" || email == "" || in.Password == "" {
		return "", &BadInputError{Msg: "username, email and password are required"}
	}

	taken, err := uc.users.UsernameOrEmailTaken(ctx, username, email)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.uniqueness_check", requestID, err)
		opLogger.Error("uniqueness pre-check failed", zap.Error(wrapped))
		return "", wrapped
	}
	if taken {
		return "", ErrConflict
	}

	if _, err := imaging.Validate(in.Image); err != nil {
		return "", &BadInputError{Msg: "cannot decode image", Err: err}
	}

	emb, err := uc.embedFace(ctx, requestID, opLogger, in.Image)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.hash_password", requestID, err)
		opLogger.Error("password hashing failed", zap.Error(wrapped))
		return "", wrapped
	}

	user := &repository.User{
		Username:      username,
		Email:         email,
		PasswordHash:  string(hash),
		FaceEmbedding: pgvector.NewVector(emb),
		CreatedAt:     time.Now().UTC(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent signup; the unique index decides.
			return "", ErrConflict
		}
		wrapped := logging.NewOperationError("usecase.create_user", requestID, err)
		opLogger.Error("failed to persist user", zap.Error(wrapped))
		return "", wrapped
	}

	uc.cacheUser(ctx, requestID, user)
	uc.recordEvent(ctx, requestID, username, repository.EventSignup, 0, true, "enrolled")

	signed, err := uc.tokens.Issue(username, email)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.issue_token", requestID, err)
		opLogger.Error("token issuance failed", zap.Error(wrapped))
		return "", wrapped
	}

	opLogger.Info("user enrolled", zap.Uint("user_id", user.ID))
	return signed, nil
}

// SignIn runs the verification flow: credential check, image decode,
// embedding extraction, distance policy, token issuance.
func (uc *AuthUseCase) SignIn(ctx context.Context, in SignInInput) (string, error) {
	requestID := uuid.NewString()
	username := strings.TrimSpace(in.Username)
	opLogger := logging.WithUser(logging.WithOperation(uc.logger, "usecase.signin", requestID), username)

	user, err := uc.lookupUser(ctx, requestID, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same failure as a wrong password: existence must not leak.
			return "", ErrInvalidCredentials
		}
		wrapped := logging.NewOperationError("usecase.find_user", requestID, err)
		opLogger.Error("user lookup failed", zap.Error(wrapped))
		return "", wrapped
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return "", ErrInvalidCredentials
	}

	if _, err := imaging.Validate(in.Image); err != nil {
		return "", &BadInputError{Msg: "cannot decode image", Err: err}
	}

	emb, err := uc.embedFace(ctx, requestID, opLogger, in.Image)
	if err != nil {
		return "", err
	}

	match, matchErr := facematch.Verify(emb, user.FaceEmbedding.Slice(), uc.threshold)
	details := fmt.Sprintf("distance=%.4f threshold=%.4f", match.Distance, uc.threshold)
	if matchErr != nil {
		// A stored embedding violating the non-zero invariant must fail the
		// verification, not the process.
		opLogger.Warn("degenerate embedding comparison", zap.Error(matchErr))
		match.Verified = false
		details = "degenerate embedding comparison"
	}

	uc.recordEvent(ctx, requestID, username, repository.EventSignin, eventDistance(match, matchErr), match.Verified, details)

	if !match.Verified {
		return "", ErrFaceMismatch
	}

	signed, err := uc.tokens.Issue(user.Username, user.Email)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.issue_token", requestID, err)
		opLogger.Error("token issuance failed", zap.Error(wrapped))
		return "", wrapped
	}

	opLogger.Info("signin verified", zap.Float64("distance", match.Distance))
	return signed, nil
}

// PublicUser is the externally visible projection of a credential record.
type PublicUser struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsers returns every record's public fields. Password hashes and
// embeddings are never part of this projection.
func (uc *AuthUseCase) ListUsers(ctx context.Context) ([]PublicUser, error) {
	users, err := uc.users.List(ctx)
	if err != nil {
		return nil, logging.NewOperationError("usecase.list_users", "", err)
	}

	public := make([]PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, PublicUser{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
		})
	}
	return public, nil
}

// embedFace runs the embedder and maps detection failures into the domain
// taxonomy.
func (uc *AuthUseCase) embedFace(ctx context.Context, requestID string, opLogger *zap.Logger, image []byte) (embedder.Embedding, error) {
	emb, err := uc.embedder.EmbedFace(ctx, image)
	if err != nil {
		var detErr *embedder.DetectionError
		if errors.As(err, &detErr) {
			return nil, &FaceProcessingError{Reason: detErr.Reason}
		}
		wrapped := logging.NewOperationError("usecase.embed_face", requestID, err)
		opLogger.Error("embedding extraction failed", zap.Error(wrapped))
		return nil, wrapped
	}
	return emb, nil
}

// lookupUser reads through the cache. Records are immutable, so a hit is
// always current; any cache failure falls back to the store.
func (uc *AuthUseCase) lookupUser(ctx context.Context, requestID, username string) (*repository.User, error) {
	cacheKey := userCacheKey(username)
	if cached, err := uc.cacheGet(ctx, requestID, "cache.get.user", cacheKey); err == nil {
		var payload cachedUser
		if err := json.Unmarshal([]byte(cached), &payload); err != nil {
			logging.WithOperation(uc.logger, "usecase.lookup_user", requestID).Warn("failed to decode cached user", zap.Error(err))
		} else if payload.Username == username {
			return payload.toUser(), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logging.WithOperation(uc.logger, "usecase.lookup_user", requestID).Warn("failed to read cache", zap.Error(err))
	}

	user, err := uc.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	uc.cacheUser(ctx, requestID, user)
	return user, nil
}

// cacheUser stores the record in Redis, best effort.
func (uc *AuthUseCase) cacheUser(ctx context.Context, requestID string, user *repository.User) {
	payload := cachedUser{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Embedding:    user.FaceEmbedding.Slice(),
		CreatedAt:    user.CreatedAt,
	}
	serialized, err := json.Marshal(payload)
	if err != nil {
		logging.WithOperation(uc.logger, "usecase.cache_user", requestID).Warn("failed to serialize user", zap.Error(err))
		return
	}

	if err := uc.withCacheRetry(ctx, requestID, "cache.set.user", func() error {
		return uc.cache.Set(ctx, userCacheKey(user.Username), string(serialized), userCacheTTL)
	}); err != nil {
		logging.WithOperation(uc.logger, "usecase.cache_user", requestID).Warn("failed to cache user", zap.Error(err))
	}
}

// recordEvent appends an audit row, best effort. Audit loss is logged, never
// surfaced to the client after the flow itself succeeded or failed cleanly.
func (uc *AuthUseCase) recordEvent(ctx context.Context, requestID, username, kind string, distance float64, verified bool, details string) {
	event := &repository.AuthEvent{
		RequestID: requestID,
		Username:  username,
		Kind:      kind,
		Distance:  distance,
		Verified:  verified,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.events.Save(ctx, event); err != nil {
		logging.WithOperation(uc.logger, "usecase.record_event", requestID).Warn("failed to record auth event", zap.Error(err))
	}
}

// eventDistance keeps audit rows finite when the comparison was degenerate.
func eventDistance(match facematch.Result, err error) float64 {
	if err != nil {
		return -1
	}
	return match.Distance
}

func userCacheKey(username string) string {
	return fmt.Sprintf("user:%s", username)
}
