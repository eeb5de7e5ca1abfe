package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	usersapi "legalforge-api/internal/api/users"
	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/logger"
	"legalforge-api/internal/infra/mail"
	"legalforge-api/internal/infra/payments"
	"legalforge-api/internal/infra/recaptcha"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	resetTokenBytes = 32
	resetTokenTTL   = time.Hour
)

var errInvalidResetToken = errors.New("invalid or expired token")

type Options struct {
	JWTSecret string
	JWTTTL    time.Duration
	AppURL    string
	Google    *GoogleConfig
}

type Handler struct {
	DB      *gorm.DB
	Gateway payments.Gateway
	Mailer  mail.Mailer
	Captcha recaptcha.Verifier
	Options

	// Cost is the bcrypt cost for new hashes.
	Cost int
}

func NewHandler(db *gorm.DB, gateway payments.Gateway, mailer mail.Mailer, captcha recaptcha.Verifier, opts Options) *Handler {
	if opts.JWTTTL == 0 {
		opts.JWTTTL = 7 * 24 * time.Hour
	}
	opts.AppURL = strings.TrimRight(opts.AppURL, "/")
	return &Handler{
		DB:      db,
		Gateway: gateway,
		Mailer:  mailer,
		Captcha: captcha,
		Options: opts,
		Cost:    bcrypt.DefaultCost,
	}
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user users.User) {
	token, err := IssueToken(h.JWTSecret, h.JWTTTL, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	c.JSON(status, gin.H{"token": token, "user": usersapi.BuildUserDTO(user)})
}

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name           string `json:"name" binding:"required"`
		Email          string `json:"email" binding:"required"`
		Password       string `json:"password" binding:"required"`
		Identity       string `json:"identity"`
		RecaptchaToken string `json:"recaptchaToken"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and password are required"})
		return
	}

	if err := h.Captcha.Verify(c.Request.Context(), input.RecaptchaToken, c.ClientIP()); err != nil {
		if errors.Is(err, recaptcha.ErrRejected) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reCAPTCHA verification failed"})
			return
		}
		logger.FromGin(c).Error("recaptcha unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not verify reCAPTCHA, try again later"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !isEmailValid(email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}
	if !isPasswordStrong(input.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters long and contain both letters and numbers"})
		return
	}

	var existing int64
	if err := h.DB.Model(&users.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), h.Cost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	hash := string(hashed)

	user := users.User{
		Email:        email,
		Password:     &hash,
		Name:         strings.TrimSpace(input.Name),
		Identity:     strings.TrimSpace(input.Identity),
		Role:         users.RoleUser,
		AuthProvider: users.ProviderLocal,
	}
	if err := h.provision(c.Request.Context(), logger.FromGin(c), &user); err != nil {
		logger.FromGin(c).Error("register user", zap.String("email", email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if err := mail.SendWelcome(h.Mailer, user.Email, user.Name); err != nil {
		logger.FromGin(c).Warn("welcome mail not sent", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// provision stores a new user on the free plan. The Stripe customer is
// created first; an unreachable Stripe only delays it until the first
// checkout, whose webhook stores the customer id.
func (h *Handler) provision(ctx context.Context, log *zap.Logger, user *users.User) error {
	customerID, err := h.Gateway.CreateCustomer(ctx, user.Email, user.Name, map[string]string{"source": "registration"})
	switch {
	case err == nil && customerID != "":
		user.StripeCustomerID = &customerID
	case errors.Is(err, payments.ErrNotConfigured):
	case err != nil:
		log.Warn("stripe customer not created at registration", zap.String("email", user.Email), zap.Error(err))
	}

	return h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		free, err := plans.FindByName(tx, plans.NameFree)
		if err != nil {
			return err
		}
		return plans.Assign(tx, user.ID, free.ID, plans.ReasonRegistration, "")
	})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	var user users.User
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.Password == nil || *user.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "This account uses Google sign-in"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	now := time.Now()
	if err := h.DB.Model(&user).Update("last_login", now).Error; err != nil {
		logger.FromGin(c).Warn("last login not stored", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	user.LastLogin = &now

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) ValidateToken(c *gin.Context) {
	var user users.User
	if err := h.DB.First(&user, c.GetUint("user_id")).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": usersapi.BuildUserDTO(user)})
}

// ForgotPassword answers the same way whether or not the email exists.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
		return
	}
	const reply = "If your email exists, you'll receive a reset link."
	log := logger.FromGin(c)

	var user users.User
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"message": reply})
		return
	}

	token, err := randomToken(resetTokenBytes)
	if err != nil {
		log.Error("generate reset token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reset token"})
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&users.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Create(&users.PasswordReset{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: time.Now().Add(resetTokenTTL),
		}).Error
	})
	if err != nil {
		log.Error("store reset token", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reset token"})
		return
	}

	link := h.AppURL + "/reset-password?token=" + token
	if err := mail.SendPasswordReset(h.Mailer, user.Email, link); err != nil {
		log.Error("reset mail not sent", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": reply})
}

// ResetPassword consumes the token and stores the new password atomically,
// so a token can succeed at most once.
func (h *Handler) ResetPassword(c *gin.Context) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !isPasswordStrong(body.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters with letters and numbers"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), h.Cost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	now := time.Now()
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var reset users.PasswordReset
		if err := tx.Where("token = ?", body.Token).First(&reset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errInvalidResetToken
			}
			return err
		}
		if err := consumeReset(tx, reset, now); err != nil {
			return err
		}
		if err := tx.Model(&users.User{}).Where("id = ?", reset.UserID).Update("password", string(hashed)).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", reset.UserID).Delete(&users.PasswordReset{}).Error
	})
	if errors.Is(err, errInvalidResetToken) {
		// Expired tokens stay until the next request or reset replaces them.
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("reset password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

// consumeReset deletes the token row only if it is still present and
// unexpired. A concurrent reset that read the same row finds nothing left to
// delete and is refused.
func consumeReset(tx *gorm.DB, reset users.PasswordReset, now time.Time) error {
	if reset.Expired(now) {
		return errInvalidResetToken
	}
	res := tx.Where("id = ? AND expires_at > ?", reset.ID, now).Delete(&users.PasswordReset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return errInvalidResetToken
	}
	return nil
}

func (h *Handler) ChangePassword(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if !isPasswordStrong(body.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New password must be at least 8 characters with letters and numbers"})
		return
	}

	var user users.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	if user.Password == nil || *user.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "This account does not have a password. Sign in with Google or reset your password.",
		})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(body.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hashedNew, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), h.Cost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	if err := h.DB.Model(&user).Update("password", string(hashedNew)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
