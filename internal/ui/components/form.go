// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rkids-tui/internal/ui/styles"
)

// =============================================================================
// FORM COMPONENT
// =============================================================================

// Field describes one input of a Form.
type Field struct {
	Key         string
	Label       string
	Placeholder string
	Secret      bool
	CharLimit   int
	Value       string
}

// Form is a vertical stack of labelled text inputs. Tab and the arrow
// keys move focus; the owning screen decides what Enter does.
type Form struct {
	fields []Field
	inputs []textinput.Model
	focus  int
	width  int
	err    string
	notice string
	theme  *styles.Theme
}

// NewForm builds a form with the first field focused.
func NewForm(theme *styles.Theme, fields ...Field) *Form {
	f := &Form{
		fields: fields,
		inputs: make([]textinput.Model, len(fields)),
		width:  40,
		theme:  theme,
	}
	for i, field := range fields {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = field.Placeholder
		ti.CharLimit = 256
		if field.CharLimit > 0 {
			ti.CharLimit = field.CharLimit
		}
		if field.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		ti.SetValue(field.Value)

		ti.PromptStyle = theme.InputPrompt
		ti.TextStyle = theme.InputText
		ti.PlaceholderStyle = theme.Placeholder
		ti.Cursor.Style = theme.InputPrompt

		f.inputs[i] = ti
	}
	f.SetWidth(f.width)
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

// Init returns the cursor blink command.
func (f *Form) Init() tea.Cmd {
	return textinput.Blink
}

// SetWidth sets the width available to the form.
func (f *Form) SetWidth(width int) {
	f.width = width
	inputWidth := width - 4
	if inputWidth < 10 {
		inputWidth = 10
	}
	for i := range f.inputs {
		f.inputs[i].Width = inputWidth
	}
}

// Len returns the number of fields.
func (f *Form) Len() int {
	return len(f.inputs)
}

// Focused returns the index of the focused field.
func (f *Form) Focused() int {
	return f.focus
}

// FocusIndex moves focus to field i.
func (f *Form) FocusIndex(i int) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	if i < 0 {
		i = len(f.inputs) - 1
	}
	if i >= len(f.inputs) {
		i = 0
	}
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[i].Focus()
}

// Next moves focus to the next field, wrapping.
func (f *Form) Next() tea.Cmd {
	return f.FocusIndex(f.focus + 1)
}

// Prev moves focus to the previous field, wrapping.
func (f *Form) Prev() tea.Cmd {
	return f.FocusIndex(f.focus - 1)
}

// OnLast reports whether the last field is focused.
func (f *Form) OnLast() bool {
	return f.focus == len(f.inputs)-1
}

// Value returns the trimmed value of the field with the given key.
// Secret fields are returned untrimmed.
func (f *Form) Value(key string) string {
	for i, field := range f.fields {
		if field.Key == key {
			if field.Secret {
				return f.inputs[i].Value()
			}
			return strings.TrimSpace(f.inputs[i].Value())
		}
	}
	return ""
}

// SetValue sets the value of the field with the given key.
func (f *Form) SetValue(key, value string) {
	for i, field := range f.fields {
		if field.Key == key {
			f.inputs[i].SetValue(value)
			return
		}
	}
}

// Values returns every field's value keyed by Field.Key.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		out[field.Key] = f.Value(field.Key)
	}
	return out
}

// Reset clears every input and the error line, and focuses the first field.
func (f *Form) Reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.err = ""
	f.notice = ""
	f.FocusIndex(0)
}

// SetError sets the inline error line; "" clears it.
func (f *Form) SetError(msg string) {
	f.err = msg
	if msg != "" {
		f.notice = ""
	}
}

// Error returns the inline error.
func (f *Form) Error() string {
	return f.err
}

// SetNotice sets an informational line shown under the inputs.
func (f *Form) SetNotice(msg string) {
	f.notice = msg
}

// Update routes focus keys and forwards everything else to the focused
// input.
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "tab", "down":
			return f.Next()
		case "shift+tab", "up":
			return f.Prev()
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// View renders labels, inputs and the message lines.
func (f *Form) View() string {
	var b strings.Builder
	for i, field := range f.fields {
		label := f.theme.Label
		if i == f.focus {
			label = f.theme.LabelFocused
		}
		b.WriteString(label.Render(field.Label))
		b.WriteString("\n")
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
		if i < len(f.fields)-1 {
			b.WriteString("\n")
		}
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(f.theme.Error.Width(f.width).Render(styles.StatusIndicators.Error + " " + f.err))
		b.WriteString("\n")
	} else if f.notice != "" {
		b.WriteString("\n")
		b.WriteString(f.theme.Success.Width(f.width).Render(f.notice))
		b.WriteString("\n")
	}
	return b.String()
}
