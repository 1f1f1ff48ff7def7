package telegram

import "encoding/json"

// Button is one inline-keyboard cell: an opaque callback payload plus a label.
type Button struct {
	Data  string
	Label string
}

// Keyboard is rendered as rows of inline buttons under a message.
type Keyboard [][]Button

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

// MarshalJSON renders the Bot API reply_markup shape.
func (k Keyboard) MarshalJSON() ([]byte, error) {
	markup := inlineMarkup{InlineKeyboard: make([][]inlineButton, 0, len(k))}
	for _, row := range k {
		cells := make([]inlineButton, 0, len(row))
		for _, b := range row {
			cells = append(cells, inlineButton{Text: b.Label, CallbackData: b.Data})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, cells)
	}
	return json.Marshal(markup)
}
