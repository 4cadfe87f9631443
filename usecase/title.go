package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bbalet/stopwords"

	"github.com/satriahrh/lingua/domain/entities"
)

const maxTitleLength = 60

// GenerateTitle derives a conversation title from an English utterance by
// dropping stop words, punctuation and single letters. It returns the
// default title when nothing is left.
func GenerateTitle(text string) string {
	var kept []string
	for _, word := range strings.Fields(stopwords.CleanString(text, "en", false)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if utf8.RuneCountInString(word) < 2 || !isAlnum(word) {
			continue
		}
		kept = append(kept, word)
	}
	if len(kept) == 0 {
		return entities.DefaultTitle
	}

	title := kept[0]
	for _, word := range kept[1:] {
		if utf8.RuneCountInString(title)+1+utf8.RuneCountInString(word) > maxTitleLength {
			break
		}
		title += " " + word
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		title = string([]rune(title)[:maxTitleLength])
	}

	first, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(first)) + title[size:]
}

func isAlnum(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
