// Package textfold приводит строки к форме для поиска без учёта регистра и диакритики.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Варианты арабских букв, которые при поиске считаются одной буквой.
var arabicLetters = strings.NewReplacer(
	"أ", "ا",
	"إ", "ا",
	"آ", "ا",
	"ٱ", "ا",
	"ى", "ي",
	"ة", "ه",
	"ؤ", "و",
	"ئ", "ي",
	"ـ", "",
)

// Fold раскладывает строку (NFD), удаляет комбинируемые знаки (латинские акценты,
// арабские огласовки), нормализует арабские буквы и приводит к нижнему регистру.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = arabicLetters.Replace(folded)
	return strings.ToLower(strings.TrimSpace(folded))
}

// Key собирает поисковый ключ из нескольких полей через пробел.
func Key(parts ...string) string {
	folded := make([]string, 0, len(parts))
	for _, p := range parts {
		if f := Fold(p); f != "" {
			folded = append(folded, f)
		}
	}
	return strings.Join(folded, " ")
}

// Contains сообщает, входит ли term в s после свёртки обеих строк.
func Contains(s, term string) bool {
	return strings.Contains(Fold(s), Fold(term))
}
