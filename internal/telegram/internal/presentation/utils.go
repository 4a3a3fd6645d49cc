package presentation

import (
	"html"
	"strings"

	"print-roll-console/internal/board"
	"print-roll-console/internal/pkg/model"

	"github.com/shopspring/decimal"
)

const barWidth = 10

func getStatusStr(status model.RollStatus) string {
	switch status {
	case model.RollPlanning:
		return "📝 Planificación"
	case model.RollProduction:
		return "🖨 Producción"
	case model.RollClosed:
		return "🔒 Cerrado"
	case model.RollFinished:
		return "✅ Finalizado"
	default:
		return "❔ " + html.EscapeString(string(status))
	}
}

func getLevelEmoji(level board.CapacityLevel) string {
	switch level {
	case board.CapacityOver:
		return "🔴"
	case board.CapacityWarning:
		return "🟡"
	default:
		return "🟢"
	}
}

func getPriorityStr(priority model.OrderPriority) string {
	if priority == model.PriorityUrgente {
		return "🔥 Urgente"
	}
	return string(priority)
}

// CapacityBar draws usage as a fixed width bar. Over-allocated rolls show a
// full bar; the percentage tells how far over they are.
func CapacityBar(percent decimal.Decimal) string {
	filled := percent.Div(decimal.NewFromInt(100 / barWidth)).Floor().IntPart()
	filled = max(0, min(filled, barWidth))
	return strings.Repeat("█", int(filled)) + strings.Repeat("░", barWidth-int(filled))
}

func formatMeters(d decimal.Decimal) string {
	return d.Round(3).String() + " m"
}

func breakLine(n int) string {
	return strings.Repeat("\n", n)
}
