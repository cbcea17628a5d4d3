package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mspsf/fbsession/internal/facebook"
	"mspsf/fbsession/pkg/response"
)

type GraphHandler struct {
	client *facebook.Client
}

func NewGraphHandler(client *facebook.Client) *GraphHandler {
	return &GraphHandler{client: client}
}

type exchangeCodeRequest struct {
	Code        string `json:"code" binding:"required"`
	State       string `json:"state" binding:"required"`
	RedirectURI string `json:"redirect_uri" binding:"required"`
}

// Proxy forwards a Graph call and returns the body unchanged. Query values are
// always plain strings; oauth/ token paths skip the response cache.
func (h *GraphHandler) Proxy(c *gin.Context) {
	client, err := clientFor(c, h.client)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	params, err := facebook.ParseParams(c.Request.URL.RawQuery)
	if err != nil {
		response.BadRequest(c, "invalid query string")
		return
	}

	body, err := client.Api(c.Request.Context(), c.Param("path"), params)
	if err != nil {
		var apiErr *facebook.APIError
		if errors.As(err, &apiErr) {
			response.ErrorWithData(c, http.StatusBadGateway, 502, apiErr.Message, gin.H{
				"type":       apiErr.Type,
				"error_code": apiErr.Code,
			})
			return
		}
		response.InternalError(c, "graph request failed")
		return
	}
	response.Raw(c, "application/json; charset=utf-8", body)
}

// ExtendToken renews the stored access token.
func (h *GraphHandler) ExtendToken(c *gin.Context) {
	client, err := clientFor(c, h.client)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	token, ok := client.ExtendAccessToken(c.Request.Context())
	if !ok {
		response.BadGateway(c, "no token obtained")
		return
	}
	response.Success(c, gin.H{"access_token": token})
}

// ExchangeCode validates the OAuth state and trades the code for a token.
func (h *GraphHandler) ExchangeCode(c *gin.Context) {
	client, err := clientFor(c, h.client)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	var req exchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing code, state or redirect_uri")
		return
	}
	if !client.ConsumeCSRFState(c.Request.Context(), req.State) {
		response.BadRequest(c, "invalid or expired state")
		return
	}
	token, ok := client.ExchangeCode(c.Request.Context(), req.Code, req.RedirectURI)
	if !ok {
		response.BadGateway(c, "no token obtained")
		return
	}
	response.Success(c, gin.H{"access_token": token})
}
