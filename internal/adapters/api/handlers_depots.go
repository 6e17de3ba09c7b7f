package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/depot"
)

type depotRequest struct {
	Name      string  `json:"name" binding:"required"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Active    *bool   `json:"active"`
}

func depotJSON(d *depot.Depot) gin.H {
	return gin.H{
		"id":        d.ID(),
		"name":      d.Name(),
		"address":   d.Address(),
		"latitude":  d.Latitude(),
		"longitude": d.Longitude(),
		"active":    d.Active(),
	}
}

func (s *Server) handleListDepots(ctx *gin.Context) {
	depots, err := s.deps.Depots.FindAll(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}

	items := make([]gin.H, 0, len(depots))
	for _, d := range depots {
		items = append(items, depotJSON(d))
	}
	ctx.JSON(http.StatusOK, gin.H{"depots": items})
}

func (s *Server) handleCreateDepot(ctx *gin.Context) {
	var req depotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	created, err := depot.NewDepot(uuid.Nil, req.Name, req.Address, req.Latitude, req.Longitude)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if req.Active != nil {
		created.SetActive(*req.Active)
	}

	if err := s.deps.Depots.Save(ctx.Request.Context(), created); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, depotJSON(created))
}

func (s *Server) handleGetDepot(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "depot_id")
	if err != nil {
		return
	}

	found, err := s.deps.Depots.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, depotJSON(found))
}

func (s *Server) handleUpdateDepot(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "depot_id")
	if err != nil {
		return
	}

	existing, err := s.deps.Depots.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	var req depotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	if err := existing.SetLocation(req.Latitude, req.Longitude, req.Address); err != nil {
		respondError(ctx, err)
		return
	}
	if req.Active != nil {
		existing.SetActive(*req.Active)
	}

	if err := s.deps.Depots.Save(ctx.Request.Context(), existing); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, depotJSON(existing))
}

func (s *Server) handleDeleteDepot(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "depot_id")
	if err != nil {
		return
	}

	if err := s.deps.Depots.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
