// Package palette сопоставляет типам отсутствий цвета для графика и легенды.
//
// Палитра является значением, которым владеет вызывающий код: она строится
// заново для каждого набора типов и не хранится в глобальном состоянии.
package palette

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/textnorm"
)

// ErrInvalidInput некорректный цвет или коэффициент.
var ErrInvalidInput = errors.New("invalid input")

// Color пара основного и дополнительного цвета.
type Color struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Entry цвет типа отсутствия с подписью для легенды.
type Entry struct {
	Color
	Label string `json:"label"`
}

var (
	Green  = Color{Primary: "#2ECC71", Secondary: "#82E5AA"}
	Orange = Color{Primary: "#FF8000", Secondary: "#FFB366"}
)

// Predefined базовая палитра. Первые два цвета закреплены за правилами.
var Predefined = []Color{
	Green,
	Orange,
	{Primary: "#E74C3C", Secondary: "#F1948A"},
	{Primary: "#8000FF", Secondary: "#B366FF"},
	{Primary: "#3498DB", Secondary: "#85C1E9"},
	{Primary: "#95A5A6", Secondary: "#BDC3C7"},
	{Primary: "#F39C12", Secondary: "#F8C471"},
	{Primary: "#9B59B6", Secondary: "#D2B4DE"},
	{Primary: "#1ABC9C", Secondary: "#7DCEA0"},
	{Primary: "#E67E22", Secondary: "#F8C471"},
}

// Rule закрепляет цвет за семейством типов. Match получает подпись
// после textnorm.Fold.
type Rule struct {
	Name  string
	Match func(folded string) bool
	Color Color
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// DefaultRules отпуск зеленым, выходной в день рождения оранжевым.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "vacation",
			Match: func(folded string) bool {
				return containsAny(folded, "ferias", "vacation", "annual leave")
			},
			Color: Green,
		},
		{
			Name: "birthday day off",
			Match: func(folded string) bool {
				return containsAny(folded, "day off", "folga") && containsAny(folded, "aniversario", "birthday")
			},
			Color: Orange,
		},
	}
}

// Palette соответствие тип -> цвет в порядке добавления типов.
type Palette struct {
	entries map[string]Entry
	order   []string
}

// Build строит палитру с правилами по умолчанию.
func Build(categories []string) *Palette {
	return BuildWithRules(categories, DefaultRules(), Predefined[2:])
}

// BuildWithRules строит палитру: сначала проверяются правила, остальные типы
// по очереди получают цвета из cycle, по кругу, если типов больше чем цветов.
// Повторяющиеся подписи игнорируются.
func BuildWithRules(categories []string, rules []Rule, cycle []Color) *Palette {
	p := &Palette{entries: make(map[string]Entry, len(categories))}
	next := 0

	for _, category := range categories {
		if _, ok := p.entries[category]; ok {
			continue
		}

		entry := Entry{Label: category}
		folded := textnorm.Fold(category)
		matched := false
		for _, rule := range rules {
			if rule.Match(folded) {
				entry.Color = rule.Color
				matched = true
				break
			}
		}
		if !matched {
			if len(cycle) > 0 {
				entry.Color = cycle[next%len(cycle)]
			} else {
				entry.Color = Predefined[0]
			}
			next++
		}

		p.entries[category] = entry
		p.order = append(p.order, category)
	}

	return p
}

// Resolve возвращает цвет типа. Для неизвестного типа возвращается первый
// цвет палитры с запрошенной подписью.
func (p *Palette) Resolve(category string) Entry {
	if p != nil {
		if entry, ok := p.entries[category]; ok {
			return entry
		}
	}
	return Entry{Color: Predefined[0], Label: category}
}

// Legend элементы легенды в порядке построения палитры.
func (p *Palette) Legend() []Entry {
	if p == nil {
		return nil
	}
	legend := make([]Entry, 0, len(p.order))
	for _, category := range p.order {
		legend = append(legend, p.entries[category])
	}
	return legend
}

// Len количество типов в палитре.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Lighten смешивает цвет с белым: factor 0 оставляет цвет, 1 дает белый.
func Lighten(hexColor string, factor float64) (string, error) {
	if math.IsNaN(factor) || factor < 0 || factor > 1 {
		return "", fmt.Errorf("%w: factor %v is outside [0, 1]", ErrInvalidInput, factor)
	}

	rgb, err := parseHex(hexColor)
	if err != nil {
		return "", err
	}

	var out [3]int
	for i, c := range rgb {
		out[i] = int(math.Round(float64(c) + float64(255-c)*factor))
		if out[i] > 255 {
			out[i] = 255
		}
	}
	return fmt.Sprintf("#%02X%02X%02X", out[0], out[1], out[2]), nil
}

// squares цветные квадраты эмодзи и их приблизительные цвета
var squares = []struct {
	emoji string
	rgb   [3]int
}{
	{"🟥", [3]int{0xE5, 0x39, 0x35}},
	{"🟧", [3]int{0xFF, 0x8C, 0x00}},
	{"🟨", [3]int{0xFD, 0xD8, 0x35}},
	{"🟩", [3]int{0x43, 0xA0, 0x47}},
	{"🟦", [3]int{0x1E, 0x88, 0xE5}},
	{"🟪", [3]int{0x8E, 0x24, 0xAA}},
	{"🟫", [3]int{0x6D, 0x4C, 0x41}},
	{"⬛", [3]int{0x00, 0x00, 0x00}},
	{"⬜", [3]int{0xFF, 0xFF, 0xFF}},
}

// Emoji ближайший к цвету квадрат эмодзи, для чатов без цветного текста.
// Для некорректного цвета возвращается белый квадрат.
func Emoji(hexColor string) string {
	rgb, err := parseHex(hexColor)
	if err != nil {
		return "⬜"
	}

	best, bestDist := 0, math.MaxInt
	for i, sq := range squares {
		dist := 0
		for c := range rgb {
			d := rgb[c] - sq.rgb[c]
			dist += d * d
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return squares[best].emoji
}

func parseHex(hexColor string) ([3]int, error) {
	var rgb [3]int
	h := strings.TrimPrefix(hexColor, "#")
	if len(h) != 6 {
		return rgb, fmt.Errorf("%w: color %q is not #RRGGBB", ErrInvalidInput, hexColor)
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
		if err != nil {
			return rgb, fmt.Errorf("%w: color %q is not #RRGGBB", ErrInvalidInput, hexColor)
		}
		rgb[i] = int(v)
	}
	return rgb, nil
}

// Style оформление отрезка на графике в зависимости от статуса.
type Style struct {
	Opacity float64 `json:"opacity"`
	Pattern string  `json:"pattern"`
	Border  string  `json:"border"`
}

// StatusStyle одобренные рисуются сплошной заливкой, ожидающие штриховкой,
// отклоненные бледно.
func StatusStyle(status absence.Status) Style {
	switch status {
	case absence.StatusPending:
		return Style{Opacity: 0.8, Pattern: "striped", Border: "2px dashed"}
	case absence.StatusRejected:
		return Style{Opacity: 0.4, Pattern: "solid", Border: "1px solid #ccc"}
	default:
		return Style{Opacity: 1.0, Pattern: "solid", Border: "2px solid"}
	}
}
