package handler

import (
	"github.com/gin-gonic/gin"

	"mspsf/fbsession/internal/facebook"
	"mspsf/fbsession/pkg/response"
)

type SessionHandler struct {
	client *facebook.Client
}

func NewSessionHandler(client *facebook.Client) *SessionHandler {
	return &SessionHandler{client: client}
}

type setSessionRequest struct {
	Value string `json:"value"`
}

// List returns every supported session key with its stored value.
func (h *SessionHandler) List(c *gin.Context) {
	client, ok := h.bind(c)
	if !ok {
		return
	}
	out := make(map[string]string, len(facebook.SupportedSessionKeys))
	for _, key := range facebook.SupportedSessionKeys {
		out[string(key)] = client.Session().Get(c.Request.Context(), key, "")
	}
	response.Success(c, out)
}

func (h *SessionHandler) Get(c *gin.Context) {
	client, ok := h.bind(c)
	if !ok {
		return
	}
	key, ok := sessionKeyParam(c)
	if !ok {
		return
	}
	response.Success(c, gin.H{
		"key":   key,
		"value": client.Session().Get(c.Request.Context(), key, ""),
	})
}

func (h *SessionHandler) Set(c *gin.Context) {
	client, ok := h.bind(c)
	if !ok {
		return
	}
	key, ok := sessionKeyParam(c)
	if !ok {
		return
	}
	var req setSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := client.Session().Set(c.Request.Context(), key, req.Value); err != nil {
		response.InternalError(c, "failed to store session data")
		return
	}
	response.Success(c, nil)
}

func (h *SessionHandler) Clear(c *gin.Context) {
	client, ok := h.bind(c)
	if !ok {
		return
	}
	key, ok := sessionKeyParam(c)
	if !ok {
		return
	}
	if err := client.Session().Clear(c.Request.Context(), key); err != nil {
		response.InternalError(c, "failed to clear session data")
		return
	}
	response.Success(c, nil)
}

func (h *SessionHandler) ClearAll(c *gin.Context) {
	client, ok := h.bind(c)
	if !ok {
		return
	}
	if err := client.Logout(c.Request.Context()); err != nil {
		response.InternalError(c, "failed to clear session data")
		return
	}
	response.Success(c, nil)
}

// EstablishState returns the OAuth state, creating it on first use.
func (h *SessionHandler) EstablishState(c *gin.Context) {
	client, ok := h.bind(c)
	if !ok {
		return
	}
	state, err := client.EstablishCSRFState(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to establish state")
		return
	}
	response.Success(c, gin.H{"state": state})
}

func (h *SessionHandler) bind(c *gin.Context) (*facebook.Client, bool) {
	client, err := clientFor(c, h.client)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return nil, false
	}
	return client, true
}

func sessionKeyParam(c *gin.Context) (facebook.SessionKey, bool) {
	key := facebook.SessionKey(c.Param("key"))
	if !key.Supported() {
		response.BadRequest(c, "unsupported session key")
		return "", false
	}
	return key, true
}
