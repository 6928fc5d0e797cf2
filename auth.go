package main

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 24 * time.Hour

var errInvalidCredentials = errors.New("invalid username or password")

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// RegisterUser creates an account after the same checks the original signup
// form ran: all fields present, password length, uniqueness.
func RegisterUser(db *sql.DB, username, email, password string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return User{}, fmt.Errorf("all fields are required")
	}
	if len(password) < 6 {
		return User{}, fmt.Errorf("password must be at least 6 characters")
	}

	exists, err := UserExists(db, username, email)
	if err != nil {
		return User{}, fmt.Errorf("checking existing user: %w", err)
	}
	if exists {
		return User{}, fmt.Errorf("username or email already exists")
	}

	id, err := CreateUser(db, username, email, hashPassword(password))
	if err != nil {
		return User{}, fmt.Errorf("creating user: %w", err)
	}
	return GetUserByID(db, id)
}

// AuthenticateUser accepts username or email as the login.
func AuthenticateUser(db *sql.DB, login, password string) (User, error) {
	user, err := GetUserByLogin(db, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, errInvalidCredentials
		}
		return User{}, err
	}
	if user.PasswordHash != hashPassword(password) {
		return User{}, errInvalidCredentials
	}
	return user, nil
}

type authClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user User) (string, error) {
	claims := authClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(secret, tokenStr string) (*authClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*authClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

const ctxUserIDKey = "userID"

// authRequired resolves the bearer token into the owning user id and
// attaches it to the request context.
func authRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header format"})
			return
		}
		claims, err := parseToken(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(ctxUserIDKey, claims.UserID)
		c.Next()
	}
}

func userIDFromContext(c *gin.Context) *int64 {
	if v, ok := c.Get(ctxUserIDKey); ok {
		if id, ok := v.(int64); ok {
			return &id
		}
	}
	return nil
}
