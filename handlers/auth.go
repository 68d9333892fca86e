package handlers

import (
	"net/http"
	"strings"

	"yumspot-api/config"
	"yumspot-api/middleware"
	"yumspot-api/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username  string          `json:"username" binding:"required,max=150"`
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=6"`
	Role      models.UserRole `json:"role" binding:"required,oneof=customer restaurant"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  *string `json:"password" binding:"omitempty,min=6"`
}

// createUser hashes the password and stores the account, answering on failure.
func createUser(c *gin.Context, req RegisterRequest) (*models.User, bool) {
	var taken int64
	if err := config.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, strings.ToLower(req.Email)).
		Count(&taken).Error; err != nil {
		serverError(c, err, "Failed to create user")
		return nil, false
	}
	if taken > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already registered"})
		return nil, false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(c, err, "Failed to hash password")
		return nil, false
	}

	user := models.User{
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		serverError(c, err, "Failed to create user")
		return nil, false
	}
	return &user, true
}

// Register creates a customer or restaurant-owner account.
// Restaurant owners stay inactive until an admin approves them.
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := createUser(c, req)
	if !ok {
		return
	}

	resp := gin.H{"message": "Account created successfully", "user": user}
	if !user.IsActive {
		resp["message"] = "Account created, pending admin approval"
		c.JSON(http.StatusCreated, resp)
		return
	}
	token, err := middleware.GenerateToken(user)
	if err != nil {
		serverError(c, err, "Failed to generate token")
		return
	}
	resp["token"] = token
	c.JSON(http.StatusCreated, resp)
}

// Login authenticates a user and returns a JWT
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account pending approval"})
		return
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		serverError(c, err, "Failed to generate token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// GetCurrentUser returns the authenticated user's profile
func GetCurrentUser(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, middleware.GetUserID(c)).Error; err != nil {
		dbError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateCurrentUser changes names, email or password of the caller.
func UpdateCurrentUser(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var user models.User
	if err := config.DB.First(&user, middleware.GetUserID(c)).Error; err != nil {
		dbError(c, err, "User not found")
		return
	}

	update := map[string]interface{}{}
	if req.FirstName != nil {
		update["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		update["last_name"] = *req.LastName
	}
	if req.Email != nil {
		email := strings.ToLower(*req.Email)
		var taken int64
		if err := config.DB.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&taken).Error; err != nil {
			serverError(c, err, "Failed to update profile")
			return
		}
		if taken > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		update["email"] = email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			serverError(c, err, "Failed to hash password")
			return
		}
		update["password_hash"] = string(hash)
	}
	if len(update) > 0 {
		if err := config.DB.Model(&user).Updates(update).Error; err != nil {
			serverError(c, err, "Failed to update profile")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// UploadAvatar stores the caller's avatar image.
func (s *Services) UploadAvatar(c *gin.Context) {
	url, ok := s.receiveImage(c, "avatars")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	if err := config.DB.Model(&models.User{}).Where("id = ?", userID).Update("avatar", url).Error; err != nil {
		serverError(c, err, "Failed to save avatar")
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": url})
}
