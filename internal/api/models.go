package api

import (
	"print-roll-console/internal/pkg/model"

	"github.com/shopspring/decimal"
)

type BoardSnapshot struct {
	Rolls         []model.Roll         `json:"rolls"`
	PendingOrders []model.PendingOrder `json:"pendingOrders"`
}

type RequestCreateRoll struct {
	AreaID   string          `json:"areaId"`
	Name     string          `json:"name"`
	Capacity decimal.Decimal `json:"capacity"`
	Color    string          `json:"color"`
}

type requestRenameRoll struct {
	Name *string `json:"name,omitempty"`
}

type requestMoveOrder struct {
	OrderID      int64 `json:"orderId"`
	TargetRollID int64 `json:"targetRollId"`
}

type requestUnassignOrder struct {
	OrderID int64 `json:"orderId"`
}

type requestReorder struct {
	OrderIDs []int64 `json:"orderIds"`
}

type RollDetails struct {
	model.Roll
	MachineName string `json:"machineName,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

type AreaMappingResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Visibility map[string]AreaVisibilityDTO `json:"visibility"`
	} `json:"data"`
}

type AreaVisibilityDTO struct {
	Visible          bool     `json:"visible"`
	Category         string   `json:"category,omitempty"`
	Complementarios  []string `json:"complementarios,omitempty"`
	MaxWidthMeters   *float64 `json:"maxWidthMeters,omitempty"`
	SupportsRaport   bool     `json:"supportsRaport,omitempty"`
	SupportsTwinface bool     `json:"supportsTwinface,omitempty"`
}

type UploadFields struct {
	DBID      string
	Type      string
	FinalName string
	Area      string
}

type UploadResult struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func init() {
	// the API expects meters as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}
