package model

import (
	"github.com/shopspring/decimal"
)

type OrderPriority string

const (
	PriorityNormal  OrderPriority = "Normal"
	PriorityUrgente OrderPriority = "Urgente"
)

type OrderType string

const (
	TypeOrdinaria  OrderType = "Ordinaria"
	TypeFalla      OrderType = "Falla"
	TypeReposicion OrderType = "Reposicion"
)

type RollStatus string

const (
	RollPlanning   RollStatus = "Planificación"
	RollProduction RollStatus = "Producción"
	RollClosed     RollStatus = "Cerrado"
	RollFinished   RollStatus = "Finalizado"
)

// PendingOrder is a production job. The same shape is used for jobs sitting in
// the pending pool and for jobs already placed inside a roll.
type PendingOrder struct {
	ID        int64           `json:"id"`
	Material  string          `json:"material"`
	Variant   string          `json:"variant,omitempty"`
	Priority  OrderPriority   `json:"priority"`
	Magnitude decimal.Decimal `json:"magnitude"`
	Sequence  *int            `json:"sequence"`
	Type      OrderType       `json:"type"`
	RollID    *int64          `json:"rollId"`
}

type Roll struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Capacity     decimal.Decimal `json:"capacity"`
	CurrentUsage decimal.Decimal `json:"currentUsage"`
	Color        string          `json:"color"`
	Status       RollStatus      `json:"status"`
	MachineID    *int64          `json:"machineId"`
	Orders       []PendingOrder  `json:"orders"`
}

// Locked reports whether the roll refuses insertions and removals.
func (r Roll) Locked() bool {
	if r.MachineID != nil {
		return true
	}
	return r.Status == RollProduction || r.Status == RollClosed
}

type MeasurementErrorKind string

const (
	ErrKindUnreadableImage   MeasurementErrorKind = "UnreadableImage"
	ErrKindNoMediaBoxFound   MeasurementErrorKind = "NoMediaBoxFound"
	ErrKindUnsupportedFormat MeasurementErrorKind = "UnsupportedFormat"
)

const UnitMeters = "meters"

// UploadedFileMeta is the measured geometry of one selected file. When
// MeasurementError is set both dimensions are nil.
type UploadedFileMeta struct {
	Name             string               `json:"name"`
	Size             int64                `json:"size"`
	MimeType         string               `json:"mimeType"`
	Checksum         string               `json:"checksum,omitempty"`
	WidthMeters      *float64             `json:"widthMeters"`
	HeightMeters     *float64             `json:"heightMeters"`
	Unit             string               `json:"unit,omitempty"`
	DPIX             *float64             `json:"dpiX,omitempty"`
	DPIY             *float64             `json:"dpiY,omitempty"`
	PageCount        *int                 `json:"pageCount"`
	ErrorKind        MeasurementErrorKind `json:"errorKind,omitempty"`
	MeasurementError *string              `json:"measurementError"`
}

func (m UploadedFileMeta) Measured() bool {
	return m.MeasurementError == nil && m.WidthMeters != nil && m.HeightMeters != nil
}
