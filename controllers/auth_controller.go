// controllers/auth_controller.go

package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/snowstorm/snowstorm_backend/config"
	"github.com/snowstorm/snowstorm_backend/middleware"
	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/utils"
)

const (
	maxLoginAttempts   = 5
	loginLockoutWindow = 30 * time.Minute
	rememberMeTTL      = 30 * 24 * time.Hour
)

// googleTokeninfoURL is overridable in tests.
var googleTokeninfoURL = "https://oauth2.googleapis.com/tokeninfo"

type loginAttempt struct {
	count       int
	lastAttempt time.Time
}

// AuthController contains authentication logic
type AuthController struct {
	DB     *mongo.Client
	logger *log.Logger

	loginAttempts   map[string]loginAttempt
	loginAttemptsMu sync.RWMutex
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client) *AuthController {
	ac := &AuthController{
		DB:            db,
		logger:        log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
		loginAttempts: make(map[string]loginAttempt),
	}

	go ac.startLoginAttemptCleanupRoutine()

	return ac
}

// Signup registers a new customer account with a bcrypt-hashed password.
func (ac *AuthController) Signup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Code:    models.CodeValidation,
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A full name, valid email and a password of at least 8 characters are required",
			Code:    models.CodeValidation,
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
			Code:    models.CodeValidation,
		})
	}

	collection := config.GetCollection(ac.DB, "users")

	count, err := collection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return internalError(c, "Failed to check existing users", err)
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "An account with this email already exists",
			Code:    models.CodeValidation,
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return internalError(c, "Failed to hash password", err)
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Password:  string(hashed),
		FullName:  utils.SanitizeInput(req.FullName),
		Role:      models.RoleCustomer,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "An account with this email already exists",
				Code:    models.CodeValidation,
			})
		}
		return internalError(c, "Failed to create user", err)
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return internalError(c, "Failed to generate token", err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created successfully",
		Data: map[string]interface{}{
			"token":        token,
			"refreshToken": refreshToken,
			"user":         user,
		},
	})
}

// Login authenticates with email+password. Repeated failures for the same
// email are throttled in memory before the password is even checked.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Code:    models.CodeValidation,
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
			Code:    models.CodeValidation,
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
			Code:    models.CodeValidation,
		})
	}

	ac.loginAttemptsMu.RLock()
	attempts, tracked := ac.loginAttempts[email]
	ac.loginAttemptsMu.RUnlock()

	if tracked && attempts.count >= maxLoginAttempts && time.Since(attempts.lastAttempt) < loginLockoutWindow {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many failed login attempts. Please try again later.",
			Code:    models.CodeUnauthorized,
		})
	}

	collection := config.GetCollection(ac.DB, "users")

	var user models.User
	err = collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
				Code:    models.CodeUnauthorized,
			})
		}
		return internalError(c, "Failed to find user", err)
	}

	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		ac.recordFailedAttempt(email)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
			Code:    models.CodeUnauthorized,
		})
	}

	if !user.IsActive {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Account is deactivated",
			Code:    models.CodeUnauthorized,
		})
	}

	ac.loginAttemptsMu.Lock()
	delete(ac.loginAttempts, email)
	ac.loginAttemptsMu.Unlock()

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return internalError(c, "Failed to generate token", err)
	}

	update := bson.M{"$set": bson.M{"lastActivity": time.Now(), "updatedAt": time.Now()}}
	if _, err := collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update); err != nil {
		ac.logger.Printf("Failed to update last activity for %s: %v", user.ID.Hex(), err)
	}

	responseData := map[string]interface{}{
		"token":        token,
		"refreshToken": refreshToken,
		"user":         user,
	}

	if req.RememberMe {
		if rememberToken := ac.storeRememberMe(user); rememberToken != "" {
			responseData["rememberMeToken"] = rememberToken
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    responseData,
	})
}

func (ac *AuthController) recordFailedAttempt(email string) {
	ac.loginAttemptsMu.Lock()
	defer ac.loginAttemptsMu.Unlock()
	attempt := ac.loginAttempts[email]
	attempt.count++
	attempt.lastAttempt = time.Now()
	ac.loginAttempts[email] = attempt
}

func (ac *AuthController) storeRememberMe(user models.User) string {
	redisClient := config.GetRedisClient()
	if redisClient == nil {
		return ""
	}

	token := utils.GenerateRememberMeToken()
	session := utils.RememberedSession{
		UserID:    user.ID.Hex(),
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(rememberMeTTL),
	}
	if err := utils.StoreRememberedSession(redisClient, token, session, rememberMeTTL); err != nil {
		ac.logger.Printf("Failed to store remember me session: %v", err)
		return ""
	}
	return token
}

// GoogleLogin verifies a Google ID token against the tokeninfo endpoint and
// creates or links the matching account.
func (ac *AuthController) GoogleLogin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Code:    models.CodeValidation,
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A Google ID token, email and Google account ID are required",
			Code:    models.CodeValidation,
		})
	}

	email, sub, name, err := ac.verifyGoogleIDToken(ctx, req.IDToken)
	if err != nil {
		ac.logger.Printf("Google auth error: %v", err)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired Google token",
			Code:    models.CodeUnauthorized,
		})
	}
	if email != req.Email || sub != req.GoogleID {
		ac.logger.Printf("Google auth error: token claims do not match request (email=%s sub=%s)", email, sub)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Google token does not match the supplied account",
			Code:    models.CodeUnauthorized,
		})
	}

	collection := config.GetCollection(ac.DB, "users")

	var user models.User
	err = collection.FindOne(ctx, bson.M{"googleId": sub}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		err = collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			now := time.Now()
			user = models.User{
				ID:        primitive.NewObjectID(),
				Email:     email,
				FullName:  name,
				GoogleID:  sub,
				Role:      models.RoleCustomer,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if _, err := collection.InsertOne(ctx, user); err != nil {
				return internalError(c, "Failed to create user", err)
			}
			ac.logger.Printf("Created new Google account %s", user.ID.Hex())
		} else if err != nil {
			return internalError(c, "Failed to find user", err)
		} else {
			// Existing password account, link the Google identity.
			update := bson.M{"$set": bson.M{"googleId": sub, "updatedAt": time.Now()}}
			if _, err := collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update); err != nil {
				return internalError(c, "Failed to link Google account", err)
			}
			user.GoogleID = sub
		}
	} else if err != nil {
		return internalError(c, "Failed to find user", err)
	}

	if !user.IsActive {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Account is deactivated",
			Code:    models.CodeUnauthorized,
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return internalError(c, "Failed to generate token", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token":        token,
			"refreshToken": refreshToken,
			"user":         user,
		},
	})
}

// verifyGoogleIDToken calls Google's tokeninfo endpoint and returns the
// verified email, subject and display name.
func (ac *AuthController) verifyGoogleIDToken(ctx context.Context, idToken string) (email, sub, name string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleTokeninfoURL+"?id_token="+idToken, nil)
	if err != nil {
		return "", "", "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", "", fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", "", fmt.Errorf("tokeninfo returned status %d", resp.StatusCode)
	}

	var info struct {
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		Exp           string `json:"exp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", "", fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}
	if info.Email == "" || info.Sub == "" {
		return "", "", "", fmt.Errorf("tokeninfo response missing email or sub")
	}
	if info.EmailVerified != "true" {
		return "", "", "", fmt.Errorf("google account email not verified")
	}

	return info.Email, info.Sub, info.Name, nil
}

// Logout blacklists the current token until its natural expiry and removes
// any remember-me session named in the X-Remember-Token header.
func (ac *AuthController) Logout(c echo.Context) error {
	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
			Code:    models.CodeUnauthorized,
		})
	}

	userToken, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "No token found",
			Code:    models.CodeUnauthorized,
		})
	}

	now := time.Now()
	tokenExpiry := now.Add(24 * time.Hour)
	if claims.ExpiresAt > 0 {
		tokenExpiry = time.Unix(claims.ExpiresAt, 0)
	}
	middleware.BlacklistToken(userToken.Raw, tokenExpiry)

	if rememberToken := c.Request().Header.Get("X-Remember-Token"); rememberToken != "" {
		if redisClient := config.GetRedisClient(); redisClient != nil {
			if err := utils.RemoveRememberedSession(redisClient, rememberToken); err != nil {
				ac.logger.Printf("Failed to remove remember me session: %v", err)
			}
		}
	}

	if objID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
		collection := config.GetCollection(ac.DB, "users")
		update := bson.M{"$set": bson.M{"lastActivity": now, "updatedAt": now}}
		if _, err := collection.UpdateOne(context.Background(), bson.M{"_id": objID}, update); err != nil {
			ac.logger.Printf("Failed to update user on logout: %v", err)
		}
	}

	ac.logger.Printf("User logout - UserID: %s, Email: %s, IP: %s", claims.UserID, claims.Email, c.RealIP())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// ValidateToken reports whether the Authorization header carries a live,
// non-blacklisted token. The endpoint itself is unauthenticated so SPAs can
// probe session state without triggering 401 interceptors.
func (ac *AuthController) ValidateToken(c echo.Context) error {
	tokenString := utils.ExtractBearerToken(c.Request())
	if tokenString == "" {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "No token provided",
			Data:    map[string]interface{}{"valid": false},
		})
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil || middleware.IsTokenBlacklisted(tokenString) {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Token is invalid or expired",
			Data:    map[string]interface{}{"valid": false},
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token is valid",
		Data: map[string]interface{}{
			"valid":  true,
			"userId": claims.UserID,
			"email":  claims.Email,
			"role":   claims.Role,
		},
	})
}

// RememberedLogin exchanges a remember-me token for a fresh JWT.
func (ac *AuthController) RememberedLogin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req struct {
		RememberToken string `json:"rememberToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil || req.RememberToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Remember token is required",
			Code:    models.CodeValidation,
		})
	}

	redisClient := config.GetRedisClient()
	if redisClient == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Remembered sessions are unavailable",
			Code:    models.CodeInternal,
		})
	}

	session, err := utils.RetrieveRememberedSession(redisClient, req.RememberToken)
	if err != nil || session == nil || time.Now().After(session.ExpiresAt) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Remembered session is invalid or expired",
			Code:    models.CodeUnauthorized,
		})
	}

	objID, err := primitive.ObjectIDFromHex(session.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Remembered session is invalid or expired",
			Code:    models.CodeUnauthorized,
		})
	}

	collection := config.GetCollection(ac.DB, "users")
	var user models.User
	if err := collection.FindOne(ctx, bson.M{"_id": objID, "isActive": true}).Decode(&user); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Remembered session is invalid or expired",
			Code:    models.CodeUnauthorized,
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return internalError(c, "Failed to generate token", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token":        token,
			"refreshToken": refreshToken,
			"user":         user,
		},
	})
}

func (ac *AuthController) startLoginAttemptCleanupRoutine() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ac.loginAttemptsMu.Lock()
		for key, attempt := range ac.loginAttempts {
			if time.Since(attempt.lastAttempt) > loginLockoutWindow {
				delete(ac.loginAttempts, key)
			}
		}
		ac.loginAttemptsMu.Unlock()
	}
}
