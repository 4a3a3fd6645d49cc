package presentation

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

func YesNoKbd() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "✔️ Sí", CallbackData: "yes"}},
			{{Text: "❌ No", CallbackData: "no"}},
		},
	}
}

func SkipKbd() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "⏩ Color por defecto", CallbackData: "skip"}},
		},
	}
}

// ColorKbd offers the roll colors operators use most.
func ColorKbd() *models.InlineKeyboardMarkup {
	row := func(colors ...[2]string) []models.InlineKeyboardButton {
		var buttons []models.InlineKeyboardButton
		for _, c := range colors {
			buttons = append(buttons, models.InlineKeyboardButton{Text: c[0], CallbackData: c[1]})
		}
		return buttons
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			row([2]string{"🔵", "#3b82f6"}, [2]string{"🟢", "#22c55e"}, [2]string{"🟡", "#eab308"}),
			row([2]string{"🔴", "#ef4444"}, [2]string{"🟣", "#a855f7"}, [2]string{"🟠", "#f97316"}),
			{{Text: "⏩ Color por defecto", CallbackData: "skip"}},
		},
	}
}

func PendingSliderKbd(totalPages, currentPage int) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{},
	}
	var sliderRow []models.InlineKeyboardButton
	if currentPage > 0 {
		sliderRow = append(sliderRow, models.InlineKeyboardButton{
			Text: "◀️", CallbackData: "previous",
		})
	}
	sliderRow = append(sliderRow, models.InlineKeyboardButton{
		Text: fmt.Sprintf("%d/%d", currentPage+1, max(totalPages, 1)), CallbackData: "noop",
	})
	if currentPage < totalPages-1 {
		sliderRow = append(sliderRow, models.InlineKeyboardButton{
			Text: "▶️", CallbackData: "next",
		})
	}
	controlRow := []models.InlineKeyboardButton{
		{Text: "🔄 Actualizar", CallbackData: "refresh"},
		{Text: "📩 Cerrar", CallbackData: "close"},
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, sliderRow, controlRow)
	return keyboard
}
