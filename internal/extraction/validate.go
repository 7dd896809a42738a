package extraction

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/noah-isme/youscore-api/internal/i18n"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

// minInputLength is the shortest free text worth sending to the extractor.
const minInputLength = 3

// Inputs starting with these phrases are greetings or connectivity tests,
// never score records.
var nonScorePhrases = []string{
	"hello", "hi", "hey", "test",
	"xin chào", "chào", "chao",
}

var bareNumberPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ValidateText rejects free text that cannot contain score information before
// any call to the external service. The returned error carries a distinct
// code per failure and a message localized to lang.
func ValidateText(text, lang string) error {
	trimmed := strings.TrimSpace(text)

	if len([]rune(trimmed)) < minInputLength {
		return validationError(i18n.KeyTextTooShort, lang)
	}

	if !containsDigit(trimmed) {
		return validationError(i18n.KeyNoScoreFound, lang)
	}

	if bareNumberPattern.MatchString(trimmed) {
		return validationError(i18n.KeyBareNumber, lang)
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range nonScorePhrases {
		if strings.HasPrefix(lower, phrase) {
			return validationError(i18n.KeyGreetingInput, lang)
		}
	}

	return nil
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func validationError(key, lang string) *appErrors.Error {
	return appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, i18n.Message(lang, key))
}
