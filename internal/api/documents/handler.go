package documentsapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	siteapi "legalforge-api/internal/api/site"
	"legalforge-api/internal/domain/access"
	"legalforge-api/internal/domain/documents"
	"legalforge-api/internal/domain/site"
	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/logger"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTitleLen = 200

type Handler struct {
	DB     *gorm.DB
	Policy *bluemonday.Policy
	Now    func() time.Time
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Policy: bluemonday.UGCPolicy(), Now: time.Now}
}

type createRequest struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Regenerate bool    `json:"regenerate"`
}

// GET /sites/:id/documents
func (h *Handler) ListDocuments(c *gin.Context) {
	s, ok := h.siteFromParam(c)
	if !ok {
		return
	}
	docs := []documents.Document{}
	if err := h.DB.Where("site_id = ?", s.ID).Order("type ASC").Find(&docs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load documents"})
		return
	}
	c.JSON(http.StatusOK, docs)
}

// POST /sites/:id/documents stores the given content, or generates it from
// the site when content is empty.
func (h *Handler) CreateDocument(c *gin.Context) {
	s, ok := h.siteFromParam(c)
	if !ok {
		return
	}
	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !documents.ValidType(body.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type must be privacy_policy, terms_of_use or cookie_policy"})
		return
	}

	title := strings.TrimSpace(body.Title)
	if title == "" {
		title = documents.Title(body.Type, s.Language)
	}
	if len(title) > maxTitleLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is too long"})
		return
	}

	content := body.Content
	if strings.TrimSpace(content) == "" {
		generated, ok := h.generate(c, body.Type, s)
		if !ok {
			return
		}
		content = generated
	}

	doc := documents.Document{
		SiteID:  s.ID,
		Title:   title,
		Type:    body.Type,
		Content: h.Policy.Sanitize(content),
	}
	if err := h.DB.Create(&doc).Error; err != nil {
		logger.FromGin(c).Error("create document", zap.Uint("site_id", s.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document"})
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// GET /documents/:id
func (h *Handler) GetDocument(c *gin.Context) {
	doc, _, ok := h.ownedDocument(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

// PUT /documents/:id
func (h *Handler) UpdateDocument(c *gin.Context) {
	doc, s, ok := h.ownedDocument(c)
	if !ok {
		return
	}
	var body updateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)
		if title == "" || len(title) > maxTitleLen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title must be between 1 and 200 characters"})
			return
		}
		doc.Title = title
	}
	switch {
	case body.Regenerate:
		generated, ok := h.generate(c, doc.Type, s)
		if !ok {
			return
		}
		doc.Content = h.Policy.Sanitize(generated)
	case body.Content != nil:
		doc.Content = h.Policy.Sanitize(*body.Content)
	}

	if err := h.DB.Omit("Site").Save(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DELETE /documents/:id
func (h *Handler) DeleteDocument(c *gin.Context) {
	doc, _, ok := h.ownedDocument(c)
	if !ok {
		return
	}
	if err := h.DB.Delete(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

type publicDocument struct {
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
	Site      struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
	} `json:"site"`
}

// GET /public/documents/:publicId, no auth.
func (h *Handler) PublicDocument(c *gin.Context) {
	var doc documents.Document
	err := h.DB.Preload("Site").Where("public_id = ?", c.Param("publicId")).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document"})
		return
	}

	var out publicDocument
	out.Title = doc.Title
	out.Type = doc.Type
	out.Content = doc.Content
	out.UpdatedAt = doc.UpdatedAt
	out.Site.Name = doc.Site.Name
	out.Site.Domain = doc.Site.Domain
	c.JSON(http.StatusOK, out)
}

func (h *Handler) siteFromParam(c *gin.Context) (site.Site, bool) {
	userID, ok := siteapi.MustUserID(c)
	if !ok {
		return site.Site{}, false
	}
	siteID, ok := siteapi.ParamID(c, "id")
	if !ok {
		return site.Site{}, false
	}
	return siteapi.LoadOwnedSite(c, h.DB, siteID, userID)
}

func (h *Handler) ownedDocument(c *gin.Context) (documents.Document, site.Site, bool) {
	var doc documents.Document
	userID, ok := siteapi.MustUserID(c)
	if !ok {
		return doc, site.Site{}, false
	}
	docID, ok := siteapi.ParamID(c, "id")
	if !ok {
		return doc, site.Site{}, false
	}

	err := h.DB.Preload("Site").
		Select("documents.*").
		Joins("JOIN sites ON sites.id = documents.site_id").
		Where("documents.id = ? AND sites.owner_id = ?", docID, userID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return doc, site.Site{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document"})
		return doc, site.Site{}, false
	}
	return doc, doc.Site, true
}

// generate renders the built-in template for the site's owner, provided
// their plan allows generation.
func (h *Handler) generate(c *gin.Context, docType string, s site.Site) (string, bool) {
	log := logger.FromGin(c)

	snap, err := access.Load(h.DB, s.OwnerID, h.Now())
	if err != nil {
		log.Error("load billing snapshot", zap.Uint("user_id", s.OwnerID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
		return "", false
	}
	if !hasCapability(snap.Policy, access.CapGenerateDocuments) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your plan does not include document generation"})
		return "", false
	}

	var owner users.User
	if err := h.DB.First(&owner, s.OwnerID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load site owner"})
		return "", false
	}

	content, err := documents.Generate(docType, s, documents.Owner{
		Name:     owner.Name,
		Identity: owner.Identity,
		Email:    owner.Email,
	}, h.Now())
	if err != nil {
		log.Error("generate document", zap.String("type", docType), zap.Uint("site_id", s.ID), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not generate document for this site"})
		return "", false
	}
	return content, true
}

func hasCapability(p access.Policy, capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
