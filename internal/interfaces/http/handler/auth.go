package handler

import (
	"github.com/gin-gonic/gin"
	partnerapp "github.com/shivfurniture/erp/internal/application/partner"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/interfaces/http/middleware"
)

// AuthHandler issues and revokes tokens
type AuthHandler struct {
	BaseHandler
	auth *partnerapp.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *partnerapp.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// AdminLogin godoc
//
//	@Summary	Back-office login
//	@Tags		auth
//	@Accept		json
//	@Param		request	body		partnerapp.LoginRequest	true	"Credentials"
//	@Success	200		{object}	dto.Response
//	@Failure	401		{object}	dto.Response
//	@Router		/auth/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req partnerapp.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.auth.AdminLogin(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// PortalLogin godoc
//
//	@Summary	Customer portal login
//	@Tags		auth
//	@Accept		json
//	@Param		request	body		partnerapp.PortalLoginRequest	true	"Credentials"
//	@Success	200		{object}	dto.Response
//	@Failure	401		{object}	dto.Response
//	@Router		/portal/login [post]
func (h *AuthHandler) PortalLogin(c *gin.Context) {
	var req partnerapp.PortalLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.auth.PortalLogin(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Logout godoc
//
//	@Summary	Revoke the presented token
//	@Tags		auth
//	@Success	204
//	@Security	BearerAuth
//	@Router		/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims.ID, claims.RemainingTTL()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
