package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// respondError maps domain error types onto HTTP statuses. Unknown errors
// become 500 with a generic message so internals do not leak.
func respondError(ctx *gin.Context, err error) {
	var validation *shared.ValidationError
	if errors.As(err, &validation) {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": validation.Error()})
		return
	}

	var notFound *shared.NotFoundError
	if errors.As(err, &notFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": notFound.Error()})
		return
	}

	var conflict *shared.ConflictError
	if errors.As(err, &conflict) {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": conflict.Error()})
		return
	}

	var noResources *shared.NoResourcesError
	if errors.As(err, &noResources) {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": noResources.Error()})
		return
	}

	ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
}

// respondBindError reports malformed request bodies uniformly
func respondBindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
}
