package common

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultLanguage is sent in join_game when the player has no preferred
// language.
const DefaultLanguage = "en"

func LanguageOrDefault(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return DefaultLanguage
	}
	return language
}

func ConvertToJSON(input interface{}) (string, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(input); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
