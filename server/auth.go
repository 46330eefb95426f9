package server

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/argon2"

	"github.com/SvenDH/go-life-engine/store"
)

type contextKey string

const (
	format            = "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	defaultExpireTime = 604800 // 1 week
	passwordTime      = 1
	passwordMemory    = 64 * 1024
	passwordThreads   = 4
	passwordKeyLen    = 32

	UserContextKey = contextKey("user")
)

var ErrMalformedHash = errors.New("malformed password hash")

type Claims struct {
	Name string `json:"name"`
	jwt.StandardClaims
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Name        string `json:"name"`
}

func GeneratePassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, passwordTime, passwordMemory, passwordThreads, passwordKeyLen)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf(format, argon2.Version, passwordMemory, passwordTime, passwordThreads, b64Salt, b64Hash), nil
}

func ValidatePassword(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false, ErrMalformedHash
	}
	var memory, time uint32
	var threads uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false, err
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}
	keyLen := uint32(len(decodedHash))
	comparisonHash := argon2.IDKey([]byte(password), salt, time, memory, threads, keyLen)
	return (subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1), nil
}

// Auth signs and checks HS256 access tokens with a shared secret.
type Auth struct {
	secret []byte
	expire int64
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret), expire: defaultExpireTime}
}

func (a *Auth) CreateJWTToken(user *store.User) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": user.Name,
		"exp":  time.Now().Unix() + a.expire,
	})
	accessToken, err := token.SignedString(a.secret)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{accessToken, user.Name}, nil
}

func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(bearer)
	}
	return ""
}

// Middleware stores the authenticated user name under UserContextKey. The token
// is read from the "token" query parameter or a bearer Authorization header.
func (a *Auth) Middleware(f http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			respondWithError(w, http.StatusBadRequest, "Please login and provide a token")
			return
		}
		user, err := a.ValidateToken(token)
		if err != nil {
			respondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, user.Name)
		f(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(UserContextKey).(string)
	return name, ok
}
