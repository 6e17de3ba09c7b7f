package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andrescamacho/coldroute-go/internal/application/auth"
)

// tokenRequest is the form-encoded login body (OAuth2 password flow shape)
type tokenRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (s *Server) handleIssueToken(ctx *gin.Context) {
	var req tokenRequest
	if err := ctx.ShouldBind(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	token, err := s.deps.Auth.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserDisabled) {
			ctx.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
			return
		}
		ctx.JSON(http.StatusUnauthorized, gin.H{"detail": "incorrect username or password"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleCurrentUser(ctx *gin.Context) {
	user := CurrentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"full_name":    user.FullName,
		"is_superuser": user.IsSuperuser,
	})
}

func (s *Server) handleHealth(ctx *gin.Context) {
	status := http.StatusOK
	health := gin.H{"status": "ok", "database": "ok", "broker": "ok"}

	if sqlDB, err := s.deps.DB.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
		health["database"] = "unavailable"
		health["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	if s.deps.Broker != nil {
		if err := s.deps.Broker.Ping(ctx.Request.Context()); err != nil {
			health["broker"] = "unavailable"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	ctx.JSON(status, health)
}
