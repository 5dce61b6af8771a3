package apitest

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"synvoy-client/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const userIDKey contextKey = "user_id"

// authenticate validates the bearer token the way the real API does
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		userID, err := s.validateToken(parts[1])
		if err != nil {
			respondError(w, "Could not validate credentials", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, tokenKey, parts[1])
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

const tokenKey contextKey = "token"

func getUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func (s *Server) validateToken(tokenString string) (string, error) {
	s.mu.Lock()
	revoked := s.revoked[tokenString]
	s.mu.Unlock()
	if revoked {
		return "", fmt.Errorf("token revoked")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("invalid token claims")
	}

	s.mu.Lock()
	_, exists := s.accounts[sub]
	s.mu.Unlock()
	if !exists {
		return "", fmt.Errorf("user not found")
	}
	return sub, nil
}

func (s *Server) authResponse(user models.User) models.AuthResponse {
	return models.AuthResponse{
		AccessToken: s.IssueToken(user.ID, tokenTTL),
		TokenType:   "bearer",
		ExpiresIn:   int(tokenTTL.Seconds()),
		User:        &user,
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	acc := s.findByEmailLocked(req.Email)
	var user models.User
	var hash []byte
	if acc != nil {
		user, hash = acc.user, acc.passwordHash
	}
	s.mu.Unlock()

	if acc == nil || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		respondError(w, "Incorrect email or password", http.StatusUnauthorized)
		return
	}
	respondJSON(w, s.authResponse(user), http.StatusOK)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decode(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}
	if req.TesterCode == "" {
		respondError(w, "Invalid tester code", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	exists := s.findByEmailLocked(req.Email) != nil
	s.mu.Unlock()
	if exists {
		respondError(w, "Email already registered", http.StatusBadRequest)
		return
	}

	user := s.AddUser(models.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}, req.Password)
	s.StartVerification(user.Email, newCode(), codeTTL)

	respondJSON(w, s.authResponse(user), http.StatusCreated)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey).(string)
	s.mu.Lock()
	s.revoked[token] = true
	s.mu.Unlock()
	respondJSON(w, map[string]string{"message": "Successfully logged out"}, http.StatusOK)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	user := s.userLocked(getUserID(r.Context()))
	s.mu.Unlock()
	if user == nil {
		respondError(w, "User not found", http.StatusNotFound)
		return
	}
	respondJSON(w, user, http.StatusOK)
}

func (s *Server) verificationStatus(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.findByEmailLocked(email)
	if acc == nil {
		respondError(w, "User not found", http.StatusNotFound)
		return
	}

	status := models.VerificationStatus{Email: email, IsVerified: acc.user.IsVerified}
	if v, ok := s.verifications[email]; ok && !acc.user.IsVerified {
		codeLeft := int(v.expiresAt.Sub(now).Seconds())
		if codeLeft < 0 {
			codeLeft = 0
		}
		deletionLeft := int(v.deletionAt.Sub(now).Seconds())
		if deletionLeft < 0 {
			deletionLeft = 0
		}
		status.CodeExpiresAt = &models.Timestamp{Time: v.expiresAt}
		status.AccountDeletionAt = &models.Timestamp{Time: v.deletionAt}
		status.TimeRemainingSeconds = &codeLeft
		status.DeletionTimeRemainingSeconds = &deletionLeft
	}
	respondJSON(w, status, http.StatusOK)
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyEmailRequest
	if err := decode(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.findByEmailLocked(req.Email)
	if acc == nil {
		respondError(w, "User not found", http.StatusNotFound)
		return
	}
	v, ok := s.verifications[req.Email]
	if !ok || v.code != req.Code {
		respondError(w, "Invalid verification code", http.StatusBadRequest)
		return
	}
	if !now.Before(v.expiresAt) {
		respondError(w, "Verification code has expired", http.StatusBadRequest)
		return
	}

	acc.user.IsVerified = true
	delete(s.verifications, req.Email)
	respondJSON(w, map[string]string{"message": "Email verified successfully"}, http.StatusOK)
}

func (s *Server) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := decode(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.findByEmailLocked(req.Email)
	if acc == nil {
		respondError(w, "User not found", http.StatusNotFound)
		return
	}
	if acc.user.IsVerified {
		respondError(w, "Email already verified", http.StatusBadRequest)
		return
	}

	v, ok := s.verifications[req.Email]
	if ok && now.Sub(v.lastSentAt) < resendCooldown {
		respondError(w, "Please wait before requesting another code", http.StatusTooManyRequests)
		return
	}
	if !ok {
		v = &verification{deletionAt: now.Add(deletionDelay)}
		s.verifications[req.Email] = v
	}
	v.code = newCode()
	v.expiresAt = now.Add(codeTTL)
	v.lastSentAt = now

	respondJSON(w, map[string]string{"message": "Verification code sent"}, http.StatusOK)
}
