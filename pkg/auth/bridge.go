package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/db"
)

const (
	// EventSignedIn and EventSignedOut are delivered to auth-state listeners
	EventSignedIn  = "SIGNED_IN"
	EventSignedOut = "SIGNED_OUT"

	defaultTokenTTL = 24 * time.Hour
)

// Credential is the authentication record for an account
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
}

// CredentialStore resolves accounts for sign-in
type CredentialStore interface {
	GetCredentialByEmail(ctx context.Context, email string) (*Credential, error)
}

// ProfileStore reads and provisions profile records
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*db.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*db.Profile, error)
	InsertProfile(ctx context.Context, profile db.Profile) error
}

// Session is an authenticated session handed to the client
type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Claims is the JWT payload for a session token
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// StateHandler receives auth-state change events
type StateHandler func(event string, session *Session)

// Bridge implements the authentication contract: sign-up, sign-in with
// profile provisioning, session lookup, and auth-state notifications.
type Bridge struct {
	credentials    CredentialStore
	profiles       ProfileStore
	jwtSecret      []byte
	tokenTTL       time.Duration
	profileTimeout time.Duration
	logger         *zap.Logger

	mu        stdsync.Mutex
	listeners []StateHandler
}

// NewBridge creates an authentication bridge. profileTimeout bounds the
// post-sign-in profile fetch so the caller is never left waiting
// indefinitely.
func NewBridge(
	credentials CredentialStore,
	profiles ProfileStore,
	jwtSecret string,
	profileTimeout time.Duration,
	logger *zap.Logger,
) *Bridge {
	return &Bridge{
		credentials:    credentials,
		profiles:       profiles,
		jwtSecret:      []byte(jwtSecret),
		tokenTTL:       defaultTokenTTL,
		profileTimeout: profileTimeout,
		logger:         logger,
	}
}

// OnAuthStateChange registers a handler invoked on every sign-in/sign-out
func (b *Bridge) OnAuthStateChange(handler StateHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, handler)
}

func (b *Bridge) notify(event string, session *Session) {
	b.mu.Lock()
	handlers := make([]StateHandler, len(b.listeners))
	copy(handlers, b.listeners)
	b.mu.Unlock()

	for _, h := range handlers {
		h(event, session)
	}
}

// SignUp creates an account with a hashed password and returns the new
// user id. A duplicate email is an AuthError.
func (b *Bridge) SignUp(ctx context.Context, email, password string, profile model.User) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := b.profiles.GetProfileByEmail(ctx, email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return "", &AuthError{Reason: "an account with this email already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.New().String()
	record := db.Profile{
		ID:           userID,
		Name:         profile.Name,
		Email:        email,
		Role:         string(profile.Role),
		MinistryIDs:  profile.MinistryIDs,
		PasswordHash: string(hash),
	}
	if record.Role == "" {
		record.Role = string(model.RoleMember)
	}
	if record.MinistryIDs == nil {
		record.MinistryIDs = []string{}
	}

	// The pre-check above races against concurrent signups; the unique
	// constraint on email is the arbiter, so its violation reads the same
	// as a caught duplicate
	if err := b.profiles.InsertProfile(ctx, record); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return "", &AuthError{Reason: "an account with this email already exists"}
		}
		return "", fmt.Errorf("failed to create profile: %w", err)
	}

	b.logger.Info("Account created", zap.String("user_id", userID))
	return userID, nil
}

// SignIn authenticates the credentials and returns a session plus the
// user's profile. A missing profile (legacy data or a failed provisioning
// trigger) is created with member defaults and fetched once more; the
// whole profile step runs under the configured timeout.
func (b *Bridge) SignIn(ctx context.Context, email, password string) (*Session, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	cred, err := b.credentials.GetCredentialByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, &AuthError{Reason: "invalid email or password"}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, nil, &AuthError{Reason: "invalid email or password"}
	}

	user, err := b.fetchProfile(ctx, cred)
	if err != nil {
		return nil, nil, err
	}

	token, expiresAt, err := b.issueToken(cred.UserID, cred.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	session := &Session{
		Token:     token,
		UserID:    cred.UserID,
		Email:     cred.Email,
		ExpiresAt: expiresAt,
	}

	b.logger.Info("User signed in", zap.String("user_id", cred.UserID))
	b.notify(EventSignedIn, session)
	return session, user, nil
}

// SignOut invalidates nothing server-side (tokens are stateless) but
// notifies auth-state listeners so clients can drop local state.
func (b *Bridge) SignOut() {
	b.notify(EventSignedOut, nil)
}

// CurrentSession parses and validates a session token
func (b *Bridge) CurrentSession(token string) (*Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return b.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, &AuthError{Reason: "invalid or expired session"}
	}

	return &Session{
		Token:     token,
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// fetchProfile retrieves the profile under the bounded timeout, creating a
// default member profile when the record is missing and retrying the fetch
// exactly once.
func (b *Bridge) fetchProfile(ctx context.Context, cred *Credential) (*model.User, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, b.profileTimeout)
	defer cancel()

	profile, err := b.profiles.GetProfile(fetchCtx, cred.UserID)
	if errors.Is(err, db.ErrNotFound) {
		b.logger.Warn("Profile missing after sign-in, provisioning default",
			zap.String("user_id", cred.UserID))

		defaultProfile := db.Profile{
			ID:          cred.UserID,
			Name:        cred.Email,
			Email:       cred.Email,
			Role:        string(model.RoleMember),
			MinistryIDs: []string{},
		}
		if err := b.profiles.InsertProfile(fetchCtx, defaultProfile); err != nil {
			if fetchCtx.Err() != nil {
				return nil, ErrProfileTimeout
			}
			return nil, &ProfileProvisioningError{Err: err}
		}

		profile, err = b.profiles.GetProfile(fetchCtx, cred.UserID)
	}

	if err != nil {
		if fetchCtx.Err() != nil {
			return nil, ErrProfileTimeout
		}
		return nil, &ProfileProvisioningError{Err: err}
	}

	user := profile.ToModel()
	return &user, nil
}

func (b *Bridge) issueToken(userID, email string) (string, time.Time, error) {
	expiresAt := time.Now().Add(b.tokenTTL)
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}
