package server

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/models"
)

// userIDKey is the gin context key holding the authenticated user id.
// Handlers read it through currentUserID and never trust client fields.
const userIDKey = "user_id"

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates a new account and issues a token.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondFail(c, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		respondFail(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.logger.Info("user registered", "email", user.Email, "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"data":    gin.H{"user": user, "token": token},
	})
}

// handleLogin verifies credentials and issues a token. Unknown email
// and wrong password produce the same response.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondFail(c, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondFail(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.logger.Info("user logged in", "email", user.Email, "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"data":    gin.H{"user": user, "token": token},
	})
}

// handleProfile returns the authenticated user's own record.
func (s *Server) handleProfile(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"user": user}})
}

// issueToken signs a bearer token for the user.
func (s *Server) issueToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// requireAuth validates the Authorization bearer token, confirms the
// user still exists, and stores the trusted user id on the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respondFail(c, http.StatusUnauthorized, "no token provided, please login first")
			c.Abort()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			respondFail(c, http.StatusUnauthorized, "invalid token format")
			c.Abort()
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(s.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			respondFail(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			respondFail(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}
		sub, ok := claims["sub"].(float64)
		if !ok {
			respondFail(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}
		userID := int64(sub)

		if _, err := s.store.GetUser(c.Request.Context(), userID); err != nil {
			respondFail(c, http.StatusUnauthorized, "user not found")
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID returns the trusted user id set by requireAuth.
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
