package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderLED renders one indicator, its color scaled by brightness (0-1)
func RenderLED(color [3]uint8, brightness float64, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(dim(color, brightness))))
	return style.Render(string(symbol))
}

// RenderLEDRow renders a row of indicators with spacing
func RenderLEDRow(color [3]uint8, levels []float64, symbol rune) string {
	var out strings.Builder
	for i, l := range levels {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderLED(color, l, symbol))
	}
	return out.String()
}

// StepCell is one column of a step row
type StepCell struct {
	Gate     bool
	Active   bool // within the track's step count
	Playhead bool
	Cursor   bool
	Light    float64 // step light brightness
}

// StepSymbols picks the glyph for each cell state
type StepSymbols struct {
	GateOn, GateOff, Beyond, Playhead rune
}

// RenderStepRow renders the gate cells of one track plus a playhead line
// underneath. Cursor cells are reversed.
func RenderStepRow(cells []StepCell, sym StepSymbols, on, off, cursor [3]uint8) string {
	var top, bottom strings.Builder
	for i, c := range cells {
		if i > 0 {
			top.WriteString(" ")
			bottom.WriteString(" ")
		}

		glyph := sym.GateOff
		color := off
		switch {
		case !c.Active:
			glyph = sym.Beyond
		case c.Gate:
			glyph = sym.GateOn
			color = on
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
		if c.Cursor {
			style = style.Reverse(true).Foreground(lipgloss.Color(rgbToHex(cursor)))
		}
		top.WriteString(style.Render(string(glyph)))

		if c.Playhead {
			bottom.WriteString(RenderLED(on, c.Light, sym.Playhead))
		} else {
			bottom.WriteString(" ")
		}
	}
	return top.String() + "\n" + bottom.String()
}

// RenderScenePad renders a scene pad from its RGB light channels
func RenderScenePad(label string, rgb [3]float64, symbol rune) string {
	c := [3]uint8{level(rgb[0]), level(rgb[1]), level(rgb[2])}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(c))).Render(string(symbol) + label)
}

// RenderMeter renders a voltage as a bar of width cells
func RenderMeter(v, full float64, width int, color [3]uint8) string {
	if full <= 0 || width <= 0 {
		return ""
	}
	n := int(v / full * float64(width))
	n = min(max0(n), width)
	bar := strings.Repeat("█", n) + strings.Repeat("░", width-n)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color))).Render(bar)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func dim(c [3]uint8, b float64) [3]uint8 {
	if b <= 0 {
		return [3]uint8{}
	}
	if b >= 1 {
		return c
	}
	return [3]uint8{uint8(float64(c[0]) * b), uint8(float64(c[1]) * b), uint8(float64(c[2]) * b)}
}

func level(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
