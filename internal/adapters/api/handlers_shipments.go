package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

type timeWindowBody struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

type shipmentRequest struct {
	OrderNumber     string           `json:"order_number" binding:"required"`
	DeliveryAddress string           `json:"delivery_address" binding:"required"`
	Latitude        float64          `json:"latitude" binding:"required"`
	Longitude       float64          `json:"longitude" binding:"required"`
	TimeWindows     []timeWindowBody `json:"time_windows"`
	SLATier         string           `json:"sla_tier"`
	TempLimitUpper  *float64         `json:"temp_limit_upper"`
	TempLimitLower  *float64         `json:"temp_limit_lower"`
	ServiceDuration int              `json:"service_duration"`
	WeightKg        float64          `json:"weight_kg" binding:"required"`
	VolumeM3        *float64         `json:"volume_m3"`
	Priority        int              `json:"priority"`
	SpecialNotes    string           `json:"special_notes"`
}

func shipmentJSON(s *shipment.Shipment) gin.H {
	windows := make([]gin.H, 0, len(s.TimeWindows()))
	for _, w := range s.TimeWindows() {
		windows = append(windows, gin.H{"start": w.Start, "end": w.End})
	}
	return gin.H{
		"id":               s.ID(),
		"order_number":     s.OrderNumber(),
		"delivery_address": s.DeliveryAddress(),
		"latitude":         s.Latitude(),
		"longitude":        s.Longitude(),
		"time_windows":     windows,
		"sla_tier":         s.SLATier(),
		"temp_limit_upper": s.TempLimitUpper(),
		"temp_limit_lower": s.TempLimitLower(),
		"service_duration": s.ServiceDuration(),
		"weight_kg":        s.Weight(),
		"volume_m3":        s.Volume(),
		"priority":         s.Priority(),
		"status":           s.Status(),
		"route_id":         s.RouteID(),
		"route_sequence":   s.RouteSequence(),
		"special_notes":    s.SpecialNotes(),
	}
}

func shipmentFromRequest(req *shipmentRequest) (*shipment.Shipment, error) {
	windows := make([]shipment.TimeWindow, 0, len(req.TimeWindows))
	for _, w := range req.TimeWindows {
		windows = append(windows, shipment.TimeWindow{Start: w.Start, End: w.End})
	}

	tempLimit := shipment.DefaultTempLimitUpper
	if req.TempLimitUpper != nil {
		tempLimit = *req.TempLimitUpper
	}

	created, err := shipment.NewShipment(
		uuid.Nil,
		req.OrderNumber,
		req.DeliveryAddress,
		req.Latitude,
		req.Longitude,
		windows,
		shipment.SLATier(req.SLATier),
		tempLimit,
		req.TempLimitLower,
		req.ServiceDuration,
		req.WeightKg,
		req.VolumeM3,
		req.Priority,
	)
	if err != nil {
		return nil, err
	}
	if req.SpecialNotes != "" {
		created.SetSpecialNotes(req.SpecialNotes)
	}
	return created, nil
}

func (s *Server) handleListShipments(ctx *gin.Context) {
	var status *shipment.Status
	if raw := ctx.Query("status"); raw != "" {
		value := shipment.Status(raw)
		status = &value
	}
	limit, offset := paginationParams(ctx)

	shipments, total, err := s.deps.Shipments.FindAll(ctx.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}

	items := make([]gin.H, 0, len(shipments))
	for _, item := range shipments {
		items = append(items, shipmentJSON(item))
	}
	ctx.JSON(http.StatusOK, gin.H{"shipments": items, "total": total})
}

// handleListPendingShipments summarizes the pool awaiting optimization
func (s *Server) handleListPendingShipments(ctx *gin.Context) {
	pending, err := s.deps.Shipments.FindPending(ctx.Request.Context(), nil)
	if err != nil {
		respondError(ctx, err)
		return
	}

	var totalWeight, totalVolume float64
	strictCount := 0
	items := make([]gin.H, 0, len(pending))
	for _, item := range pending {
		totalWeight += item.Weight()
		totalVolume += item.VolumeOrZero()
		if item.IsStrict() {
			strictCount++
		}
		items = append(items, shipmentJSON(item))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"total_pending":      len(pending),
		"strict_sla_count":   strictCount,
		"standard_sla_count": len(pending) - strictCount,
		"total_weight_kg":    totalWeight,
		"total_volume_m3":    totalVolume,
		"shipments":          items,
	})
}

func (s *Server) handleCreateShipment(ctx *gin.Context) {
	var req shipmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	created, err := shipmentFromRequest(&req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if err := s.deps.Shipments.Save(ctx.Request.Context(), created); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, shipmentJSON(created))
}

// handleCreateShipmentsBatch inserts a batch atomically: one invalid entry
// rejects the whole request
func (s *Server) handleCreateShipmentsBatch(ctx *gin.Context) {
	var reqs []shipmentRequest
	if err := ctx.ShouldBindJSON(&reqs); err != nil {
		respondBindError(ctx, err)
		return
	}

	shipments := make([]*shipment.Shipment, 0, len(reqs))
	for i := range reqs {
		created, err := shipmentFromRequest(&reqs[i])
		if err != nil {
			respondError(ctx, err)
			return
		}
		shipments = append(shipments, created)
	}

	if err := s.deps.Shipments.SaveAll(ctx.Request.Context(), shipments); err != nil {
		respondError(ctx, err)
		return
	}

	items := make([]gin.H, 0, len(shipments))
	for _, item := range shipments {
		items = append(items, shipmentJSON(item))
	}
	ctx.JSON(http.StatusCreated, gin.H{"shipments": items, "created": len(items)})
}

func (s *Server) handleGetShipment(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "shipment_id")
	if err != nil {
		return
	}

	found, err := s.deps.Shipments.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, shipmentJSON(found))
}

func (s *Server) handleUpdateShipment(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "shipment_id")
	if err != nil {
		return
	}

	existing, err := s.deps.Shipments.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	var req shipmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	if len(req.TimeWindows) > 0 {
		windows := make([]shipment.TimeWindow, 0, len(req.TimeWindows))
		for _, w := range req.TimeWindows {
			windows = append(windows, shipment.TimeWindow{Start: w.Start, End: w.End})
		}
		if err := existing.SetTimeWindows(windows); err != nil {
			respondError(ctx, err)
			return
		}
	}
	if err := existing.SetPriority(req.Priority); err != nil {
		respondError(ctx, err)
		return
	}
	if req.SpecialNotes != "" {
		existing.SetSpecialNotes(req.SpecialNotes)
	}

	if err := s.deps.Shipments.Save(ctx.Request.Context(), existing); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, shipmentJSON(existing))
}

// handleDeleteShipment removes a shipment; only PENDING shipments may go
func (s *Server) handleDeleteShipment(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "shipment_id")
	if err != nil {
		return
	}

	existing, err := s.deps.Shipments.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !existing.IsPending() {
		respondError(ctx, shared.NewConflictError("only PENDING shipments can be deleted"))
		return
	}

	if err := s.deps.Shipments.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
