package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	sqldb "expensehub-server/src/db/sql"
	"expensehub-server/src/models"
	"expensehub-server/src/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func issueToken(user *models.User, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(time.Hour * 168).Unix(),
	})
	return token.SignedString([]byte(secret))
}

func Register(pool *pgxpool.Pool, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithError(err).Error("failed to decode register request body")
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		req.Username = strings.TrimSpace(req.Username)

		if !util.ValidateEmail(req.Email) {
			respondError(w, http.StatusBadRequest, "invalid email format")
			return
		}
		if !util.ValidateUsername(req.Username) {
			respondError(w, http.StatusBadRequest, "username must be between 3 and 30 characters")
			return
		}
		if !util.ValidatePassword(req.Password) {
			respondError(w, http.StatusBadRequest, "password must be at least 8 characters with uppercase, lowercase, digit, and special character")
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithError(err).WithField("username", req.Username).Error("failed to hash password")
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		user, err := sqldb.CreateUser(r.Context(), pool, req, string(hashedPassword))
		if err != nil {
			logrus.WithError(err).WithField("username", req.Username).Error("failed to create user")
			respondStoreError(w, err, "user not found", "email or username already exists")
			return
		}

		logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")

		tokenString, err := issueToken(user, jwtSecret)
		if err != nil {
			logrus.WithError(err).WithField("username", user.Username).Error("failed to generate token")
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		respondJSON(w, http.StatusCreated, map[string]string{"token": tokenString})
	}
}

func Login(pool *pgxpool.Pool, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var credentials struct {
			UsernameOrEmail string `json:"username"`
			Password        string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			logrus.WithError(err).Error("failed to decode login request body")
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}

		user, err := sqldb.GetUserByUsernameOrEmail(r.Context(), pool, strings.TrimSpace(credentials.UsernameOrEmail))
		if err != nil {
			// Same response for unknown user and bad password.
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credentials.Password)); err != nil {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		tokenString, err := issueToken(user, jwtSecret)
		if err != nil {
			logrus.WithError(err).WithField("username", user.Username).Error("failed to generate token")
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user logged in")
		respondJSON(w, http.StatusOK, map[string]string{"token": tokenString})
	}
}
