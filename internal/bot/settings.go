package bot

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"stylebot/internal/domain"
	"stylebot/internal/i18n"
	"stylebot/internal/telegram"
)

// Settings bounds and adjustment steps. style_count, num_iter and img_height
// upper bounds come from the chat's per-chat limits.
const (
	styleWeightMin = 0.1
	styleWeightMax = 10.0
	styleScaleMin  = 0.1
	styleScaleMax  = 3.0
	imgHeightMin   = 100

	floatStepSmall = 0.1
	floatStepLarge = 0.5
	intStepSmall   = 1
	intStepLarge   = 5
	sizeStepSmall  = 10
	sizeStepLarge  = 50
)

// SettingsEditor validates and applies parameter-change requests and renders
// the interactive prompts for them.
type SettingsEditor struct {
	msgr Messenger
	loc  *i18n.Localizer
}

// NewSettingsEditor constructs the editor.
func NewSettingsEditor(msgr Messenger, loc *i18n.Localizer) *SettingsEditor {
	return &SettingsEditor{msgr: msgr, loc: loc}
}

// Apply handles one "<key>=<value>" request. Unknown keys and unparsable
// values are rejected without mutating anything. On success the new value is
// clamped, written into the chat's defaults, persisted, and the setting's
// prompt is refreshed: edited in place when editMessageID is non-zero (button
// press), sent as a new message otherwise (typed command).
func (e *SettingsEditor) Apply(ctx context.Context, chats domain.ChatRepository, chat *domain.Chat, data string, editMessageID int64) (bool, error) {
	key, raw, ok := strings.Cut(data, "=")
	if !ok {
		return false, nil
	}

	p := &chat.DefaultParameters
	promptKey := key
	switch key {
	case "style_weight":
		v, ok := parseFloatInBounds(raw, styleWeightMin, styleWeightMax)
		if !ok {
			return false, nil
		}
		p.StyleWeight = v
	case "style_scale":
		v, ok := parseFloatInBounds(raw, styleScaleMin, styleScaleMax)
		if !ok {
			return false, nil
		}
		p.StyleScale = v
	case "style_count":
		v, ok := parseIntInBounds(raw, 1, chat.StyleCountMax)
		if !ok {
			return false, nil
		}
		p.StyleCount = v
	case "num_iter":
		v, ok := parseIntInBounds(raw, 1, chat.NumIterMax)
		if !ok {
			return false, nil
		}
		p.NumIter = v
	case "img_height":
		v, ok := parseIntInBounds(raw, imgHeightMin, chat.ImgHeightMax)
		if !ok {
			return false, nil
		}
		p.ImgHeight = roundToNearest10(v)
	case "preserve_color":
		switch raw {
		case "True":
			p.PreserveColor = true
		case "False":
			p.PreserveColor = false
		default:
			return false, nil
		}
		// The toggle lives on the image-size prompt.
		promptKey = "img_height"
	default:
		return false, nil
	}

	if err := chats.Save(ctx, chat); err != nil {
		return false, err
	}
	return true, e.SendPrompt(ctx, chat, promptKey, editMessageID)
}

// SendAll sends the full set of settings prompts, one message per setting.
func (e *SettingsEditor) SendAll(ctx context.Context, chat *domain.Chat) error {
	for _, key := range []string{"style_weight", "style_scale", "style_count", "num_iter", "img_height"} {
		if err := e.SendPrompt(ctx, chat, key, 0); err != nil {
			return err
		}
	}
	return nil
}

// SendPrompt renders one setting's caption and keyboard. A non-zero
// editMessageID edits that message instead of sending a new one.
func (e *SettingsEditor) SendPrompt(ctx context.Context, chat *domain.Chat, key string, editMessageID int64) error {
	s := e.loc.For(chat.Language)
	p := chat.DefaultParameters

	var text string
	var kb telegram.Keyboard
	switch key {
	case "style_weight":
		text = fmt.Sprintf(s.StyleWeightCaption, p.StyleWeight)
		kb = telegram.Keyboard{floatRow("style_weight", p.StyleWeight, styleWeightMin, styleWeightMax)}
	case "style_scale":
		text = fmt.Sprintf(s.StyleScaleCaption, p.StyleScale)
		kb = telegram.Keyboard{floatRow("style_scale", p.StyleScale, styleScaleMin, styleScaleMax)}
	case "style_count":
		text = fmt.Sprintf(s.StyleCountCaption, p.StyleCount)
		kb = telegram.Keyboard{intRow("style_count", p.StyleCount, intStepSmall, intStepLarge, 1, chat.StyleCountMax)}
	case "num_iter":
		text = fmt.Sprintf(s.NumIterCaption, p.NumIter)
		kb = telegram.Keyboard{intRow("num_iter", p.NumIter, intStepSmall, intStepLarge, 1, chat.NumIterMax)}
	case "img_height":
		text = fmt.Sprintf(s.ImgSizeCaption, p.ImgHeight)
		toggleLabel := s.DontPreserveColor
		toggleValue := "True"
		if p.PreserveColor {
			toggleLabel = s.PreserveColorCaption
			toggleValue = "False"
		}
		kb = telegram.Keyboard{
			intRow("img_height", p.ImgHeight, sizeStepSmall, sizeStepLarge, imgHeightMin, chat.ImgHeightMax),
			{{Data: "preserve_color=" + toggleValue, Label: toggleLabel}},
		}
	default:
		return fmt.Errorf("settings: unknown prompt key %q", key)
	}

	if editMessageID != 0 {
		return e.msgr.EditMessage(ctx, chat.ID, editMessageID, text, kb)
	}
	_, err := e.msgr.SendMessageWithKeyboard(ctx, chat.ID, text, kb)
	return err
}

// floatRow builds the +large / +small / -small / -large adjustment buttons.
// Every encoded target is pre-clamped so pressing any button is always valid.
func floatRow(key string, value, lo, hi float64) []telegram.Button {
	steps := []float64{floatStepLarge, floatStepSmall, -floatStepSmall, -floatStepLarge}
	row := make([]telegram.Button, 0, len(steps))
	for _, step := range steps {
		target := roundTo1Decimal(clampFloat(value+step, lo, hi))
		row = append(row, telegram.Button{
			Data:  fmt.Sprintf("%s=%.1f", key, target),
			Label: fmt.Sprintf("%+.1f", step),
		})
	}
	return row
}

func intRow(key string, value, small, large, lo, hi int) []telegram.Button {
	steps := []int{large, small, -small, -large}
	row := make([]telegram.Button, 0, len(steps))
	for _, step := range steps {
		target := clampInt(value+step, lo, hi)
		row = append(row, telegram.Button{
			Data:  fmt.Sprintf("%s=%d", key, target),
			Label: fmt.Sprintf("%+d", step),
		})
	}
	return row
}

// parseFloatInBounds parses, clamps, and rounds to one decimal.
func parseFloatInBounds(raw string, lo, hi float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return roundTo1Decimal(clampFloat(v, lo, hi)), true
}

func parseIntInBounds(raw string, lo, hi int) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return clampInt(v, lo, hi), true
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTo1Decimal(v float64) float64 {
	return math.Round(v*10) / 10
}

// roundToNearest10 rounds half away from zero, so 155 becomes 160.
func roundToNearest10(v int) int {
	return int(math.Round(float64(v)/10) * 10)
}
