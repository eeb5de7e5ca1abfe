package siteapi

import (
	"errors"
	"net/http"
	"strings"

	"legalforge-api/internal/domain/documents"
	"legalforge-api/internal/domain/site"
	"legalforge-api/internal/infra/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNameLen = 120

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// GET /sites
func (h *Handler) ListSites(c *gin.Context) {
	userID, ok := MustUserID(c)
	if !ok {
		return
	}
	sites := []site.Site{}
	if err := site.OwnedQuery(h.DB, userID).Order("created_at ASC").Find(&sites).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sites"})
		return
	}
	c.JSON(http.StatusOK, sites)
}

// POST /sites; the plan quota is enforced by middleware in front of it.
func (h *Handler) CreateSite(c *gin.Context) {
	userID, ok := MustUserID(c)
	if !ok {
		return
	}
	var body CreateSiteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	s := site.Site{OwnerID: userID, Observations: strings.TrimSpace(body.Observations)}
	if msg := applySiteFields(&s, &body.Name, &body.Domain, &body.Language, &body.Legislation); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := h.DB.Create(&s).Error; err != nil {
		logger.FromGin(c).Error("create site", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create site"})
		return
	}
	c.JSON(http.StatusCreated, s)
}

// GET /sites/:id
func (h *Handler) GetSite(c *gin.Context) {
	s, ok := h.ownedSite(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s)
}

// PUT /sites/:id
func (h *Handler) UpdateSite(c *gin.Context) {
	s, ok := h.ownedSite(c)
	if !ok {
		return
	}
	var body UpdateSiteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if msg := applySiteFields(&s, body.Name, body.Domain, body.Language, body.Legislation); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if body.Observations != nil {
		s.Observations = strings.TrimSpace(*body.Observations)
	}

	if err := h.DB.Save(&s).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update site"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// DELETE /sites/:id removes the site and its documents.
func (h *Handler) DeleteSite(c *gin.Context) {
	s, ok := h.ownedSite(c)
	if !ok {
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("site_id = ?", s.ID).Delete(&documents.Document{}).Error; err != nil {
			return err
		}
		return tx.Delete(&s).Error
	})
	if err != nil {
		logger.FromGin(c).Error("delete site", zap.Uint("site_id", s.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete site"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Site deleted"})
}

func (h *Handler) ownedSite(c *gin.Context) (site.Site, bool) {
	userID, ok := MustUserID(c)
	if !ok {
		return site.Site{}, false
	}
	siteID, ok := ParamID(c, "id")
	if !ok {
		return site.Site{}, false
	}
	return LoadOwnedSite(c, h.DB, siteID, userID)
}

// LoadOwnedSite answers 404 for sites the user does not own.
func LoadOwnedSite(c *gin.Context, db *gorm.DB, siteID, userID uint) (site.Site, bool) {
	s, err := site.FindOwned(db, siteID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Site not found"})
		return s, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load site"})
		return s, false
	}
	return s, true
}

// applySiteFields validates and assigns the non-nil fields, returning a
// client-facing message on the first invalid one.
func applySiteFields(s *site.Site, name, domain, language, legislation *string) string {
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" || len(n) > maxNameLen {
			return "Name must be between 1 and 120 characters"
		}
		s.Name = n
	}
	if domain != nil {
		d, err := site.NormalizeDomain(*domain)
		if err != nil {
			return "Invalid domain"
		}
		s.Domain = d
	}
	if language != nil {
		l, ok := site.NormalizeLanguage(*language)
		if !ok {
			return "Unsupported language (en, es, pt)"
		}
		s.Language = l
	}
	if legislation != nil {
		l, ok := site.NormalizeLegislation(*legislation)
		if !ok {
			return "Unsupported legislation (gdpr, lgpd, ccpa)"
		}
		s.Legislation = l
	}
	return ""
}
