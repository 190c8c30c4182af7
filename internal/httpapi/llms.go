package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vk/promptworks/internal/llm"
	"github.com/vk/promptworks/internal/store"
)

// providerResponse is the transport shape of a provider card. The API key
// is never echoed back; only its masked form is.
type providerResponse struct {
	ID               int64           `json:"id"`
	ProviderKey      string          `json:"provider_key"`
	ProviderName     string          `json:"provider_name"`
	BaseURL          string          `json:"base_url,omitempty"`
	LogoEmoji        string          `json:"logo_emoji,omitempty"`
	LogoURL          string          `json:"logo_url,omitempty"`
	IsCustom         bool            `json:"is_custom"`
	IsArchived       bool            `json:"is_archived"`
	DefaultModelName string          `json:"default_model_name,omitempty"`
	MaskedAPIKey     string          `json:"masked_api_key"`
	Models           []modelResponse `json:"models"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type modelResponse struct {
	ID               int64     `json:"id"`
	ProviderID       int64     `json:"provider_id"`
	Name             string    `json:"name"`
	Capability       string    `json:"capability,omitempty"`
	ConcurrencyLimit int       `json:"concurrency_limit"`
	Quota            int       `json:"quota"`
	CreatedAt        time.Time `json:"created_at"`
}

func serializeModel(m *store.Model) modelResponse {
	return modelResponse{
		ID:               m.ID,
		ProviderID:       m.ProviderID,
		Name:             m.Name,
		Capability:       m.Capability,
		ConcurrencyLimit: m.ConcurrencyLimit,
		Quota:            m.Quota,
		CreatedAt:        m.CreatedAt,
	}
}

func (s *Server) serializeProvider(p *store.Provider) providerResponse {
	models := make([]modelResponse, 0)
	for _, m := range s.store.ListModels(p.ID) {
		models = append(models, serializeModel(m))
	}

	baseURL, logoEmoji, logoURL := p.BaseURL, p.LogoEmoji, p.LogoURL
	if defaults, ok := llm.ProviderDefaults(p.ProviderKey); ok {
		if baseURL == "" {
			baseURL = defaults.BaseURL
		}
		if logoEmoji == "" {
			logoEmoji = defaults.LogoEmoji
		}
		if logoURL == "" {
			logoURL = defaults.LogoURL
		}
	}

	return providerResponse{
		ID:               p.ID,
		ProviderKey:      p.ProviderKey,
		ProviderName:     p.ProviderName,
		BaseURL:          baseURL,
		LogoEmoji:        logoEmoji,
		LogoURL:          logoURL,
		IsCustom:         p.IsCustom,
		IsArchived:       p.IsArchived,
		DefaultModelName: p.DefaultModelName,
		MaskedAPIKey:     llm.MaskAPIKey(p.APIKey),
		Models:           models,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (s *Server) listCommonProviders(c *gin.Context) {
	c.JSON(http.StatusOK, llm.CommonProviders())
}

func (s *Server) listProviders(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	providers := s.store.ListProviders(c.Query("provider"), limit, offset)
	out := make([]providerResponse, 0, len(providers))
	for _, p := range providers {
		out = append(out, s.serializeProvider(p))
	}
	c.JSON(http.StatusOK, out)
}

type createProviderRequest struct {
	ProviderKey      string `json:"provider_key"`
	ProviderName     string `json:"provider_name"`
	BaseURL          string `json:"base_url"`
	APIKey           string `json:"api_key"`
	LogoEmoji        string `json:"logo_emoji"`
	LogoURL          string `json:"logo_url"`
	DefaultModelName string `json:"default_model_name"`
	IsCustom         *bool  `json:"is_custom"`
}

func (s *Server) createProvider(c *gin.Context) {
	var req createProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	key := llm.NormalizeKey(req.ProviderKey)
	if key == "" {
		key = llm.NormalizeKey(req.ProviderName)
	}
	defaults, known := llm.ProviderDefaults(key)

	baseURL := llm.NormalizeBaseURL(req.BaseURL)
	if baseURL == "" && known {
		baseURL = defaults.BaseURL
	}

	isCustom := !known
	if req.IsCustom != nil {
		isCustom = *req.IsCustom
	}
	if baseURL == "" {
		c.JSON(http.StatusBadRequest, detail("a base URL is required for this provider"))
		return
	}

	name := req.ProviderName
	if name == "" && known {
		name = defaults.Name
	}
	if name == "" {
		c.JSON(http.StatusBadRequest, detail("a provider name is required"))
		return
	}

	logoEmoji := req.LogoEmoji
	if logoEmoji == "" && known {
		logoEmoji = defaults.LogoEmoji
	}

	provider, err := s.store.CreateProvider(store.Provider{
		ProviderKey:      key,
		ProviderName:     name,
		BaseURL:          baseURL,
		APIKey:           req.APIKey,
		LogoEmoji:        logoEmoji,
		LogoURL:          req.LogoURL,
		IsCustom:         isCustom,
		DefaultModelName: req.DefaultModelName,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}
	s.logger.Info("Created LLM provider.", "providerID", provider.ID, "provider", provider.ProviderName)
	c.JSON(http.StatusCreated, s.serializeProvider(provider))
}

func (s *Server) getProvider(c *gin.Context) {
	provider, ok := s.providerOr404(c, true)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.serializeProvider(provider))
}

type updateProviderRequest struct {
	ProviderName     *string `json:"provider_name"`
	BaseURL          *string `json:"base_url"`
	APIKey           *string `json:"api_key"`
	LogoEmoji        *string `json:"logo_emoji"`
	LogoURL          *string `json:"logo_url"`
	DefaultModelName *string `json:"default_model_name"`
}

func (s *Server) updateProvider(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	provider, err := s.store.UpdateProvider(id, func(p *store.Provider) error {
		if req.ProviderName != nil {
			p.ProviderName = *req.ProviderName
		}
		if req.BaseURL != nil {
			normalized := llm.NormalizeBaseURL(*req.BaseURL)
			if normalized == "" {
				return errors.New("a base URL is required for this provider")
			}
			p.BaseURL = normalized
		}
		if req.APIKey != nil && *req.APIKey != "" {
			p.APIKey = *req.APIKey
		}
		if req.LogoEmoji != nil {
			p.LogoEmoji = *req.LogoEmoji
		}
		if req.LogoURL != nil {
			p.LogoURL = *req.LogoURL
		}
		if req.DefaultModelName != nil {
			p.DefaultModelName = *req.DefaultModelName
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrProviderNotFound) {
			c.JSON(http.StatusNotFound, detail("provider not found"))
			return
		}
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}
	s.logger.Info("Updated LLM provider.", "providerID", provider.ID)
	c.JSON(http.StatusOK, s.serializeProvider(provider))
}

func (s *Server) deleteProvider(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProvider(id); err != nil {
		c.JSON(http.StatusNotFound, detail("provider not found"))
		return
	}
	s.logger.Info("Deleted LLM provider.", "providerID", id)
	c.Status(http.StatusNoContent)
}

type createModelRequest struct {
	Name             string `json:"name" binding:"required"`
	Capability       string `json:"capability"`
	ConcurrencyLimit int    `json:"concurrency_limit"`
	Quota            int    `json:"quota"`
}

func (s *Server) createModel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req createModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}
	model, err := s.store.CreateModel(id, store.Model{
		Name:             req.Name,
		Capability:       req.Capability,
		ConcurrencyLimit: req.ConcurrencyLimit,
		Quota:            req.Quota,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrProviderNotFound):
			c.JSON(http.StatusNotFound, detail("provider not found"))
		default:
			c.JSON(http.StatusBadRequest, detail(err.Error()))
		}
		return
	}
	s.logger.Info("Added model.", "providerID", id, "model", model.Name)
	c.JSON(http.StatusCreated, serializeModel(model))
}

type updateModelRequest struct {
	Capability       *string `json:"capability"`
	ConcurrencyLimit *int    `json:"concurrency_limit"`
	Quota            *int    `json:"quota"`
}

func (s *Server) updateModel(c *gin.Context) {
	providerID, ok := idParam(c, "id")
	if !ok {
		return
	}
	modelID, ok := idParam(c, "modelID")
	if !ok {
		return
	}
	var req updateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}
	model, err := s.store.UpdateModel(providerID, modelID, func(m *store.Model) {
		if req.Capability != nil {
			m.Capability = *req.Capability
		}
		if req.ConcurrencyLimit != nil {
			m.ConcurrencyLimit = *req.ConcurrencyLimit
		}
		if req.Quota != nil {
			m.Quota = *req.Quota
		}
	})
	if err != nil {
		c.JSON(http.StatusNotFound, detail("model not found"))
		return
	}
	c.JSON(http.StatusOK, serializeModel(model))
}

func (s *Server) deleteModel(c *gin.Context) {
	providerID, ok := idParam(c, "id")
	if !ok {
		return
	}
	modelID, ok := idParam(c, "modelID")
	if !ok {
		return
	}
	remaining, err := s.store.DeleteModel(providerID, modelID)
	if err != nil {
		c.JSON(http.StatusNotFound, detail(err.Error()))
		return
	}
	s.logger.Info("Deleted model.", "providerID", providerID, "modelID", modelID, "remaining", remaining)
	c.Status(http.StatusNoContent)
}

func (s *Server) listQuickTestHistory(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)
	logs := s.store.ListUsageLogs("quick_test", limit, offset)
	out := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		entry := gin.H{
			"id":                log.ID,
			"provider_id":       log.ProviderID,
			"model_id":          log.ModelID,
			"model_name":        log.ModelName,
			"response_text":     log.ResponseText,
			"messages":          log.Messages,
			"temperature":       log.Temperature,
			"latency_ms":        log.LatencyMS,
			"prompt_tokens":     log.PromptTokens,
			"completion_tokens": log.CompletionTokens,
			"total_tokens":      log.TotalTokens,
			"created_at":        log.CreatedAt,
		}
		if provider, err := s.store.GetProvider(log.ProviderID, true); err == nil {
			entry["provider_name"] = provider.ProviderName
			entry["provider_logo_emoji"] = provider.LogoEmoji
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, out)
}

// providerOr404 resolves the :id path parameter to a provider or writes
// the 404 itself.
func (s *Server) providerOr404(c *gin.Context, includeArchived bool) (*store.Provider, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	provider, err := s.store.GetProvider(id, includeArchived)
	if err != nil {
		c.JSON(http.StatusNotFound, detail("provider not found"))
		return nil, false
	}
	return provider, true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, detail("invalid id"))
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// newUsageLogID returns the id for a usage log entry.
func newUsageLogID() string {
	return uuid.NewString()
}
