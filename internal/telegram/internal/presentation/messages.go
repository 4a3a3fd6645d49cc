package presentation

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"print-roll-console/internal/api"
	"print-roll-console/internal/board"
	"print-roll-console/internal/geometry"
	"print-roll-console/internal/pkg/model"
)

func GenericErrorMsg() string {
	return "<b>❌ Ocurrió un error inesperado, inténtalo más tarde</b>"
}

func StateConversionErrorMsg() string {
	return "<b>❌ No se pudieron recuperar los datos de la respuesta anterior. Empieza de nuevo</b>"
}

func UsageMsg(usage string) string {
	return fmt.Sprintf("<b>ℹ️ Uso:</b> <code>%s</code>", html.EscapeString(usage))
}

func HelpMsg() string {
	var sb strings.Builder
	sb.WriteString("<b>🧻 Tablero de rollos de impresión</b>")
	sb.WriteString(breakLine(2))
	sb.WriteString("<b>📄 Envía archivos PDF o imágenes para medirlos. Con el texto <code>upload &lt;dbId&gt; &lt;tipo&gt; &lt;área&gt;</code> también se suben</b>")
	sb.WriteString(breakLine(2))
	sb.WriteString("<b>⚙️ Comandos disponibles:</b>")
	sb.WriteString(breakLine(2))
	for _, line := range []string{
		"/board - ver los rollos y su ocupación",
		"/pending [priority=… material=… variant=… type=…] - pedidos pendientes",
		"/roll &lt;id&gt; - detalle de un rollo",
		"/move &lt;pedido&gt; &lt;rollo|pending&gt; [posición] - mover un pedido",
		"/unassign &lt;rollo&gt; &lt;pedido…&gt; - devolver pedidos a pendientes",
		"/newroll - crear un rollo",
		"/rename &lt;id&gt; - renombrar un rollo",
		"/dismantle &lt;id&gt; - desarmar un rollo",
		"/reload - volver a cargar el tablero",
	} {
		sb.WriteString(line)
		sb.WriteString(breakLine(1))
	}
	return sb.String()
}

func BoardMsg(state board.BoardState) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>🧻 Rollos: %d · 📥 Pendientes: %d</b>", len(state.Rolls), len(state.Pending)))
	if len(state.Rolls) == 0 {
		sb.WriteString(breakLine(2))
		sb.WriteString("<b>🔍 No hay rollos en esta área</b>")
		return sb.String()
	}
	for _, roll := range state.Rolls {
		sb.WriteString(breakLine(2))
		sb.WriteString(RollSummary(roll))
	}
	return sb.String()
}

func RollSummary(roll model.Roll) string {
	var sb strings.Builder
	lock := ""
	if roll.Locked() {
		lock = " 🔒"
	}
	percent := board.UsagePercent(roll)
	sb.WriteString(fmt.Sprintf("<b>#%d %s</b>%s", roll.ID, html.EscapeString(roll.Name), lock))
	sb.WriteString(breakLine(1))
	sb.WriteString(fmt.Sprintf("%s <code>%s</code> %s%% · %s / %s",
		getLevelEmoji(board.Level(roll)), CapacityBar(percent), percent.String(),
		formatMeters(roll.CurrentUsage), formatMeters(roll.Capacity)))
	sb.WriteString(breakLine(1))
	sb.WriteString(fmt.Sprintf("%s · %d pedidos", getStatusStr(roll.Status), len(roll.Orders)))
	return sb.String()
}

func RollDetailsMsg(details *api.RollDetails) string {
	var sb strings.Builder
	sb.WriteString(RollSummary(details.Roll))
	if details.MachineName != "" {
		sb.WriteString(breakLine(1))
		sb.WriteString(fmt.Sprintf("🖨 Máquina: %s", html.EscapeString(details.MachineName)))
	}
	if len(details.Orders) > 0 {
		sb.WriteString(breakLine(2))
		sb.WriteString("<b>📋 Pedidos:</b>")
		for i, o := range details.Orders {
			sb.WriteString(breakLine(1))
			sb.WriteString(fmt.Sprintf("%d. %s", i+1, OrderLine(o)))
		}
	}
	return sb.String()
}

func OrderLine(o model.PendingOrder) string {
	variant := ""
	if o.Variant != "" {
		variant = " / " + html.EscapeString(o.Variant)
	}
	return fmt.Sprintf("<b>#%d</b> %s%s · %s · %s · %s",
		o.ID, html.EscapeString(o.Material), variant, formatMeters(o.Magnitude),
		getPriorityStr(o.Priority), html.EscapeString(string(o.Type)))
}

func PendingPageMsg(orders []model.PendingOrder, total int, filter board.PendingFilter) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>📥 Pedidos pendientes: %d</b>", total))
	if !filter.IsEmpty() {
		sb.WriteString(breakLine(1))
		sb.WriteString("<i>Filtro activo</i>")
	}
	if len(orders) == 0 {
		sb.WriteString(breakLine(2))
		sb.WriteString("<b>🔍 No hay pedidos pendientes</b>")
		return sb.String()
	}
	sb.WriteString(breakLine(1))
	for _, o := range orders {
		sb.WriteString(breakLine(1))
		sb.WriteString(OrderLine(o))
	}
	return sb.String()
}

func MoveDoneMsg(orderID int64, dest board.Container) string {
	if dest.IsPending() {
		return fmt.Sprintf("<b>✔️ Pedido #%d devuelto a pendientes</b>", orderID)
	}
	return fmt.Sprintf("<b>✔️ Pedido #%d movido al rollo #%d</b>", orderID, dest.RollID)
}

func UnassignDoneMsg(count int, rollID int64) string {
	return fmt.Sprintf("<b>✔️ %d pedidos del rollo #%d devueltos a pendientes</b>", count, rollID)
}

func BoardReloadedMsg() string {
	return "<b>🔄 Tablero actualizado</b>"
}

func AskRollNameMsg() string {
	return "<b>🏷 Escribe el nombre del rollo</b>"
}

func AskRollCapacityMsg() string {
	return "<b>📏 Escribe la capacidad del rollo en metros</b>"
}

func CapacityValidationErrorMsg() string {
	return "❌ La capacidad debe ser un número de metros mayor que cero"
}

func AskRollColorMsg() string {
	return "<b>🎨 Elige un color para el rollo</b>"
}

func RollCreatedMsg(roll *model.Roll) string {
	return fmt.Sprintf("<b>✔️ Rollo #%d «%s» creado</b>", roll.ID, html.EscapeString(roll.Name))
}

func AskRenameMsg(roll model.Roll) string {
	return fmt.Sprintf("<b>🏷 Escribe el nuevo nombre para «%s»</b>", html.EscapeString(roll.Name))
}

func RollRenamedMsg(name string) string {
	return fmt.Sprintf("<b>✔️ Rollo renombrado a «%s»</b>", html.EscapeString(name))
}

func DismantleConfirmMsg(roll model.Roll) string {
	return fmt.Sprintf("<b>❓ ¿Desarmar el rollo «%s»? Sus %d pedidos vuelven a pendientes</b>",
		html.EscapeString(roll.Name), len(roll.Orders))
}

func DismantledMsg() string {
	return "<b>✔️ Rollo desarmado</b>"
}

func DismantleCancelledMsg() string {
	return "<b>❌ Operación cancelada</b>"
}

func StartingDownloadMsg(total int) string {
	return fmt.Sprintf("<b>💾 Descargando archivos. Total: %d</b>", total)
}

func DownloadErrorMsg(name string, err error) string {
	return fmt.Sprintf("<b>❌ No se pudo descargar %s</b>: %s", html.EscapeString(name), html.EscapeString(err.Error()))
}

func MeasureResultMsg(meta model.UploadedFileMeta) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>📄 %s</b>", html.EscapeString(meta.Name)))
	sb.WriteString(breakLine(1))
	if !meta.Measured() {
		reason := "desconocido"
		if meta.MeasurementError != nil {
			reason = *meta.MeasurementError
		}
		sb.WriteString(fmt.Sprintf("⚠️ Sin medidas (%s). Se debe medir a mano", html.EscapeString(reason)))
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("📐 %.3f × %.3f m", *meta.WidthMeters, *meta.HeightMeters))
	if meta.DPIX != nil && meta.DPIY != nil {
		sb.WriteString(fmt.Sprintf(" · %.0f×%.0f dpi", *meta.DPIX, *meta.DPIY))
	}
	if meta.PageCount != nil && *meta.PageCount > 1 {
		sb.WriteString(breakLine(1))
		sb.WriteString(fmt.Sprintf("📑 %d páginas, se midió la primera", *meta.PageCount))
	}
	return sb.String()
}

func UploadDoneMsg(finalName string) string {
	return fmt.Sprintf("<b>✔️ Subido como</b> <code>%s</code>", html.EscapeString(finalName))
}

// ErrorMsg turns a domain error into something an operator can act on.
func ErrorMsg(err error) string {
	var (
		persist  *board.ErrPersistFailed
		unassign *board.ErrUnassignFailed
		tooWide  *geometry.ErrWidthExceeded
	)
	switch {
	case errors.Is(err, board.ErrRollLocked):
		return "<b>🔒 El rollo está bloqueado (asignado a máquina o en producción)</b>"
	case errors.Is(err, board.ErrRollNotFound):
		return "<b>🔍 No existe ese rollo</b>"
	case errors.Is(err, board.ErrOrderNotFound):
		return "<b>🔍 El pedido no está donde se esperaba. Usa /reload</b>"
	case errors.Is(err, board.ErrInvalidIndex):
		return "<b>❌ La posición debe ser un número positivo</b>"
	case errors.Is(err, board.ErrInvalidRollName):
		return "<b>❌ El nombre no puede estar vacío</b>"
	case errors.Is(err, board.ErrInvalidCapacity):
		return CapacityValidationErrorMsg()
	case errors.As(err, &unassign):
		return fmt.Sprintf("<b>❌ Falló el pedido #%d tras devolver %d de %d. El tablero se recargó</b>",
			unassign.OrderID, unassign.Done, unassign.Total)
	case errors.As(err, &persist):
		return fmt.Sprintf("<b>❌ El servidor rechazó la operación (%s). El tablero se recargó</b>",
			html.EscapeString(persist.Op))
	case errors.As(err, &tooWide):
		return "<b>⛔ " + html.EscapeString(tooWide.Error()) + "</b>"
	default:
		return GenericErrorMsg()
	}
}
