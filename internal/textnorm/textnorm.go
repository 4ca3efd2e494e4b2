// Package textnorm приводит свободный текст (типы отсутствий, команды, имена)
// к виду, пригодному для сравнения без учета регистра и диакритики.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold переводит строку в нижний регистр, убирает диакритику,
// заменяет '-' и '_' пробелами и схлопывает повторяющиеся пробелы.
// "Licença-Médica" -> "licenca medica".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	stripped = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return unicode.ToLower(r)
	}, stripped)

	return strings.Join(strings.Fields(stripped), " ")
}

// ContainsFold проверяет вхождение needle в s после Fold обеих строк.
func ContainsFold(s, needle string) bool {
	return strings.Contains(Fold(s), Fold(needle))
}

// EqualTrimFold сравнивает строки без учета регистра и пробелов по краям.
func EqualTrimFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NewCollator создает collator для сортировки имен с учетом языка.
// Collator не потокобезопасен: создавайте новый на каждый проход сортировки.
func NewCollator(tag language.Tag) *collate.Collator {
	return collate.New(tag, collate.IgnoreCase)
}
