package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	googleIssuer     = "https://accounts.google.com"
	oauthStateCookie = "oauth_state"
)

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
}

func (g *GoogleConfig) oauth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  g.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /auth/google
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not enabled"})
		return
	}
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}

	secure := strings.HasPrefix(h.Google.RedirectURL, "https://")
	c.SetCookie(oauthStateCookie, state, 300, "/", "", secure, true)
	c.Redirect(http.StatusFound, h.Google.oauth2().AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not enabled"})
		return
	}
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code/state"})
		return
	}
	cookieState, err := c.Cookie(oauthStateCookie)
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}

	ctx := c.Request.Context()
	tok, err := h.Google.oauth2().Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to exchange code"})
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing id_token"})
		return
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		logger.FromGin(c).Error("google oidc provider", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to reach Google"})
		return
	}
	idToken, err := provider.Verifier(&oidc.Config{ClientID: h.Google.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id_token"})
		return
	}
	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil || claims.Sub == "" || claims.Email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token missing required claims"})
		return
	}
	if !claims.EmailVerified {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google email is not verified"})
		return
	}

	user, err := h.findOrCreateGoogleUser(c, claims)
	if err != nil {
		logger.FromGin(c).Error("google sign-in", zap.String("email", claims.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	if h.Google.FrontendRedirect == "" {
		h.respondWithToken(c, http.StatusOK, user)
		return
	}
	tokenString, err := IssueToken(h.JWTSecret, h.JWTTTL, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}
	c.Redirect(http.StatusFound, h.Google.FrontendRedirect+"?token="+url.QueryEscape(tokenString))
}

// findOrCreateGoogleUser matches by Google subject, then links an existing
// account with the same email, then provisions a new one.
func (h *Handler) findOrCreateGoogleUser(c *gin.Context, gc googleIDClaims) (users.User, error) {
	var user users.User
	err := h.DB.Where("google_sub = ?", gc.Sub).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	email := strings.ToLower(gc.Email)
	err = h.DB.Where("email = ?", email).First(&user).Error
	if err == nil {
		sub := gc.Sub
		if err := h.DB.Model(&user).Update("google_sub", sub).Error; err != nil {
			return user, err
		}
		user.GoogleSub = &sub
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	sub := gc.Sub
	user = users.User{
		Email:        email,
		Name:         gc.Name,
		Role:         users.RoleUser,
		AuthProvider: users.ProviderGoogle,
		GoogleSub:    &sub,
	}
	if err := h.provision(c.Request.Context(), logger.FromGin(c), &user); err != nil {
		return users.User{}, err
	}
	return user, nil
}
