package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/smartquiz/quizrun-backend/internal/config"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionAlreadyActive = errors.New("another session is already active, please contact admin to reset")
	ErrQuizTokenMismatch    = errors.New("quiz token missing or mismatched")
)

// TokenType distinguishes participant vs admin tokens.
type TokenType string

const (
	TokenTypeParticipant TokenType = "participant"
	TokenTypeAdmin       TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    int       `json:"user_id"`
}

// ParticipantSession is what a successful participant login returns:
// the JWT plus the anti-forgery quiz token the engine attaches to
// answer, violation, and submit requests.
type ParticipantSession struct {
	Participant *model.Participant `json:"participant"`
	Token       string             `json:"token"`
	QuizToken   string             `json:"quiz_token"`
}

// AuthService handles authentication, JWT, and session management.
type AuthService struct {
	cfg             *config.Config
	rdb             *redis.Client
	participantRepo *repository.ParticipantRepository
	adminRepo       *repository.AdminRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	cfg *config.Config,
	rdb *redis.Client,
	participantRepo *repository.ParticipantRepository,
	adminRepo *repository.AdminRepository,
) *AuthService {
	return &AuthService{
		cfg:             cfg,
		rdb:             rdb,
		participantRepo: participantRepo,
		adminRepo:       adminRepo,
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ParticipantLogin registers or re-identifies a participant and mints
// their session. First login creates the row; later logins must match
// the stored name and email for the register number. A participant who
// already completed the quiz cannot log in again.
func (s *AuthService) ParticipantLogin(ctx context.Context, req *model.ParticipantLoginRequest) (*ParticipantSession, error) {
	p, err := s.participantRepo.GetByRegisterNo(ctx, req.RegisterNo)
	if errors.Is(err, pgx.ErrNoRows) {
		p, err = s.participantRepo.Create(ctx, req.Name, req.RegisterNo, req.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve participant: %w", err)
	}

	if p.Email != req.Email {
		return nil, ErrInvalidCredentials
	}

	if p.AttemptStatus == model.AttemptCompleted {
		return nil, ErrAlreadySubmitted
	}

	token, err := s.generateParticipantToken(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	quizToken, err := s.mintQuizToken(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &ParticipantSession{Participant: p, Token: token, QuizToken: quizToken}, nil
}

// AdminLogin verifies admin credentials and returns a signed JWT.
func (s *AuthService) AdminLogin(ctx context.Context, req *model.AdminLoginRequest) (*model.Admin, string, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get admin: %w", err)
	}

	if err := s.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, "", err
	}

	token, err := s.generateAdminToken(admin.ID)
	if err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

// generateParticipantToken creates a JWT for a participant and registers
// the session in Redis. A second login kicks the earlier device: the
// stored JTI is replaced, so the old token fails the session check.
func (s *AuthService) generateParticipantToken(ctx context.Context, participantID int) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(participantID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: TokenTypeParticipant,
		UserID:    participantID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	sessionKey := config.CacheKey.ParticipantSessionKey(participantID)
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return signed, nil
}

// generateAdminToken creates a JWT for an admin.
func (s *AuthService) generateAdminToken(adminID int) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(adminID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: TokenTypeAdmin,
		UserID:    adminID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// mintQuizToken creates the per-attempt anti-forgery token and stores it
// in Redis with the same lifetime as the JWT.
func (s *AuthService) mintQuizToken(ctx context.Context, participantID int) (string, error) {
	quizToken := uuid.New().String()
	key := config.CacheKey.QuizTokenKey(participantID)
	if err := s.rdb.Set(ctx, key, quizToken, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store quiz token: %w", err)
	}
	return quizToken, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateParticipantSession checks that the token's JTI matches the
// active session in Redis.
func (s *AuthService) ValidateParticipantSession(ctx context.Context, participantID int, jti string) error {
	sessionKey := config.CacheKey.ParticipantSessionKey(participantID)
	stored, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errors.New("no active session")
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return errors.New("session invalidated")
	}
	return nil
}

// ValidateQuizToken checks the X-Quiz-Token header value against the
// minted token in Redis.
func (s *AuthService) ValidateQuizToken(ctx context.Context, participantID int, quizToken string) error {
	key := config.CacheKey.QuizTokenKey(participantID)
	stored, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrQuizTokenMismatch
		}
		return fmt.Errorf("check quiz token: %w", err)
	}
	if stored != quizToken {
		return ErrQuizTokenMismatch
	}
	return nil
}

// ResetParticipantSession removes a participant's session and quiz token
// from Redis, allowing a fresh login.
func (s *AuthService) ResetParticipantSession(ctx context.Context, participantID int) error {
	return s.rdb.Del(ctx,
		config.CacheKey.ParticipantSessionKey(participantID),
		config.CacheKey.QuizTokenKey(participantID),
	).Err()
}
