package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/db"
	"lg/fitness-tracker-api/internal/models"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// dummyHash is a pre-computed bcrypt hash used when a login email isn't found.
// Running bcrypt against it (instead of returning early) keeps response time
// constant, preventing timing-based account enumeration.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// hashToken is how tokens are stored: the raw values only ever live on the client.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// issueSession stores a fresh session for userID and returns its raw tokens.
// now should be UTC so stored expiries compare correctly as text on SQLite.
func issueSession(tx *gorm.DB, userID uint, now time.Time) (tokenPair, error) {
	pair := tokenPair{AccessToken: uuid.NewString(), RefreshToken: uuid.NewString()}
	err := tx.Create(&models.Session{
		UserID:           userID,
		AccessHash:       hashToken(pair.AccessToken),
		RefreshHash:      hashToken(pair.RefreshToken),
		AccessExpiresAt:  now.Add(accessTokenTTL),
		RefreshExpiresAt: now.Add(refreshTokenTTL),
	}).Error
	return pair, err
}

// login verifies email/password and returns the user plus a token pair.
// POST /api/auth/login (public, no auth required).
func (h *Handler) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Email == "" || body.Password == "" {
		apiError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	u, lookupErr := queryOne[models.User](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("email = ?", strings.ToLower(strings.TrimSpace(body.Email)))
	})

	// Always run bcrypt so a missing account takes as long as a wrong password.
	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil && !db.IsNotFound(lookupErr) {
		h.serverError(c, "login failed", lookupErr)
		return
	}
	if lookupErr != nil || compareErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := issueSession(h.db.WithContext(c.Request.Context()), u.ID, h.now().UTC())
	if err != nil {
		h.serverError(c, "login failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         gin.H{"id": u.ID, "email": u.Email, "name": u.Name},
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

var errRefreshInvalid = errors.New("invalid refresh token")

// refresh rotates a session: the presented refresh token is consumed and a
// new pair is issued. POST /api/auth/refresh (public).
func (h *Handler) refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.RefreshToken == "" {
		apiError(c, http.StatusBadRequest, "refreshToken is required")
		return
	}

	now := h.now().UTC()
	var pair tokenPair
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var s models.Session
		err := tx.Where("refresh_hash = ? AND refresh_expires_at > ?", hashToken(body.RefreshToken), now).Take(&s).Error
		if db.IsNotFound(err) {
			return errRefreshInvalid
		}
		if err != nil {
			return err
		}
		res := tx.Delete(&models.Session{}, s.ID)
		if res.Error != nil {
			return res.Error
		}
		// A concurrent refresh already consumed this token.
		if res.RowsAffected == 0 {
			return errRefreshInvalid
		}
		pair, err = issueSession(tx, s.UserID, now)
		return err
	})
	if errors.Is(err, errRefreshInvalid) {
		apiError(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if err != nil {
		h.serverError(c, "failed to refresh session", err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// authMiddleware validates the Bearer access token and sets user_id on the context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		var s models.Session
		err := h.db.WithContext(c.Request.Context()).
			Where("access_hash = ?", hashToken(token)).Take(&s).Error
		if err != nil {
			if !db.IsNotFound(err) {
				h.log.Error("session lookup failed", zap.Error(err))
			}
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		if !h.now().Before(s.AccessExpiresAt) {
			apiError(c, http.StatusUnauthorized, "token expired")
			c.Abort()
			return
		}

		c.Set("user_id", s.UserID)
		c.Next()
	}
}

// pruneSessions deletes sessions whose refresh token has expired. Run hourly
// from the scheduler in main.
func pruneSessions(ctx context.Context, gdb *gorm.DB, now time.Time) (int64, error) {
	res := gdb.WithContext(ctx).Where("refresh_expires_at <= ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
