package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/andrescamacho/coldroute-go/internal/application/common"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

// Type aliases for convenience
type ResetShipmentsCommand = types.ResetShipmentsCommand
type ResetShipmentsResponse = types.ResetShipmentsResponse

// ResetShipmentsHandler deletes every planned route and returns all shipments
// to PENDING, clearing their route back-references. Intended for demo and
// replanning workflows.
type ResetShipmentsHandler struct {
	shipments shipment.Repository
}

// NewResetShipmentsHandler creates the reset handler
func NewResetShipmentsHandler(shipments shipment.Repository) *ResetShipmentsHandler {
	return &ResetShipmentsHandler{shipments: shipments}
}

// Handle executes the reset command
func (h *ResetShipmentsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ResetShipmentsCommand); !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	reset, err := h.shipments.ResetAll(ctx)
	if err != nil {
		return nil, err
	}

	log.Printf("Reset %d shipments to PENDING and cleared all routes", reset)

	return &ResetShipmentsResponse{ShipmentsReset: reset}, nil
}
