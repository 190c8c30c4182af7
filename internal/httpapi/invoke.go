package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vk/promptworks/internal/llm"
	"github.com/vk/promptworks/internal/store"
)

// invokeRequest is a quick-test invocation against a configured provider.
// The model is picked by id, then by name, then by the provider's default.
type invokeRequest struct {
	ModelID      *int64         `json:"model_id"`
	Model        string         `json:"model"`
	Messages     []llm.Message  `json:"messages" binding:"required,min=1"`
	Temperature  *float64       `json:"temperature"`
	Parameters   map[string]any `json:"parameters"`
	PersistUsage bool           `json:"persist_usage"`
}

// resolvedModel is the model name plus, when it maps to a stored record,
// its id for usage logging.
type resolvedModel struct {
	name    string
	modelID int64
}

// resolveModel picks the model for an invocation. Precedence: explicit
// model_id, explicit model name (stored record preferred, raw name
// accepted), the provider's default model name, the provider's first
// stored model.
func (s *Server) resolveModel(provider *store.Provider, req *invokeRequest) (resolvedModel, error) {
	if req.ModelID != nil {
		model, err := s.store.GetModel(provider.ID, *req.ModelID)
		if err != nil {
			return resolvedModel{}, errors.New("the requested model does not belong to this provider")
		}
		return resolvedModel{name: model.Name, modelID: model.ID}, nil
	}
	if req.Model != "" {
		if model, err := s.store.FindModelByName(provider.ID, req.Model); err == nil {
			return resolvedModel{name: model.Name, modelID: model.ID}, nil
		}
		return resolvedModel{name: req.Model}, nil
	}
	if provider.DefaultModelName != "" {
		if model, err := s.store.FindModelByName(provider.ID, provider.DefaultModelName); err == nil {
			return resolvedModel{name: model.Name, modelID: model.ID}, nil
		}
		return resolvedModel{name: provider.DefaultModelName}, nil
	}
	if models := s.store.ListModels(provider.ID); len(models) > 0 {
		return resolvedModel{name: models[0].Name, modelID: models[0].ID}, nil
	}
	return resolvedModel{}, errors.New("no model specified and the provider has no models configured")
}

// buildInvokeSpec merges the provider card, its stored extra parameters,
// and the request into one invocation spec.
func (s *Server) buildInvokeSpec(provider *store.Provider, req *invokeRequest, model resolvedModel) llm.InvokeSpec {
	params := make(map[string]any, len(provider.Params)+len(req.Parameters))
	for key, value := range provider.Params {
		params[key] = value
	}
	for key, value := range req.Parameters {
		params[key] = value
	}

	baseURL := provider.BaseURL
	if baseURL == "" {
		if defaults, ok := llm.ProviderDefaults(provider.ProviderKey); ok {
			baseURL = defaults.BaseURL
		}
	}

	timeout := time.Duration(s.settings.TestingTimeouts().QuickTestTimeout * float64(time.Second))
	return llm.InvokeSpec{
		BaseURL:     baseURL,
		APIKey:      provider.APIKey,
		Model:       model.name,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		Parameters:  params,
		Timeout:     timeout,
	}
}

func (s *Server) invokeProvider(c *gin.Context) {
	provider, ok := s.providerOr404(c, false)
	if !ok {
		return
	}
	var req invokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}
	model, err := s.resolveModel(provider, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	spec := s.buildInvokeSpec(provider, &req, model)
	invocation, err := s.llm.Invoke(c.Request.Context(), spec)
	if err != nil {
		s.writeUpstreamError(c, provider.ID, err)
		return
	}

	if req.PersistUsage {
		s.persistUsage(provider.ID, model, &req, invocation.ResponseText, invocation.Usage, invocation.LatencyMS)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            invocation.ID,
		"model":         model.name,
		"response":      invocation.Payload,
		"response_text": invocation.ResponseText,
		"usage":         invocation.Usage,
		"latency_ms":    invocation.LatencyMS,
	})
}

// streamInvokeProvider proxies the upstream SSE stream to the caller,
// re-chunked character by character, and persists usage once the stream
// finishes.
func (s *Server) streamInvokeProvider(c *gin.Context) {
	provider, ok := s.providerOr404(c, false)
	if !ok {
		return
	}
	var req invokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}
	model, err := s.resolveModel(provider, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	spec := s.buildInvokeSpec(provider, &req, model)

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	started := false
	summary, err := s.llm.StreamInvoke(c.Request.Context(), spec, func(event llm.StreamEvent) error {
		if !started {
			c.Status(http.StatusOK)
			started = true
		}
		if _, err := c.Writer.WriteString("data: " + event.Data + "\n\n"); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		if started {
			// Headers are gone; the best we can do is end the stream.
			s.logger.Warn("Stream aborted mid-flight.", "providerID", provider.ID, "error", err)
			return
		}
		s.writeUpstreamError(c, provider.ID, err)
		return
	}

	if req.PersistUsage {
		s.persistUsage(provider.ID, model, &req, summary.ResponseText, summary.Usage, summary.LatencyMS)
	}
}

// writeUpstreamError maps an invocation failure to a response: upstream
// API errors keep their status and payload, anything else is a 502.
func (s *Server) writeUpstreamError(c *gin.Context, providerID int64, err error) {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, detail(apiErr.Payload))
		return
	}
	s.logger.Warn("LLM invocation failed.", "providerID", providerID, "error", err)
	c.JSON(http.StatusBadGateway, detail(err.Error()))
}

func (s *Server) persistUsage(providerID int64, model resolvedModel, req *invokeRequest, responseText string, usage *llm.Usage, latencyMS int64) {
	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{"role": m.Role, "content": m.Content})
	}
	log := store.UsageLog{
		ID:           newUsageLogID(),
		ProviderID:   providerID,
		ModelID:      model.modelID,
		ModelName:    model.name,
		Source:       "quick_test",
		Messages:     messages,
		Parameters:   req.Parameters,
		ResponseText: responseText,
		Temperature:  req.Temperature,
		LatencyMS:    latencyMS,
	}
	if usage != nil {
		log.PromptTokens = usage.PromptTokens
		log.CompletionTokens = usage.CompletionTokens
		log.TotalTokens = usage.TotalTokens
	}
	s.store.AppendUsageLog(log)
}
