package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// languageAlternatives maps alternative keys a provider may answer with back
// to the canonical language names used in file headers.
var languageAlternatives = map[string]string{
	"de":                     "german",
	"latin american spanish": "latam",
	"es-419":                 "latam",
	"fr":                     "french",
	"it":                     "italian",
	"ja":                     "japanese",
	"korean":                 "koreana",
	"ko":                     "koreana",
	"pl":                     "polish",
	"portuguese":             "brazilian",
	"pt-br":                  "brazilian",
	"ru":                     "russian",
	"tr":                     "turkish",
	"simplified chinese":     "schinese",
	"zh-cn":                  "schinese",
	"traditional chinese":    "tchinese",
	"zh-tw":                  "tchinese",
	"es":                     "spanish",
}

// repairResponse strips any leading non-structural text up to the first JSON
// open-marker and anything after the matching end of the document. Providers
// occasionally wrap the object in prose or markdown fences.
func repairResponse(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return raw
	}
	end := strings.LastIndexByte(raw, '}')
	if end < start {
		return raw[start:]
	}
	return raw[start : end+1]
}

// parseTranslations decodes a provider response into a language→translation
// mapping restricted to the requested languages. A malformed response gets
// one repair pass; if it still fails to decode, a ParseError carrying the raw
// response is returned.
func parseTranslations(raw string, languages []string) (map[string]string, error) {
	decoded, err := decodeMapping(raw)
	if err != nil {
		decoded, err = decodeMapping(repairResponse(raw))
		if err != nil {
			return nil, &ParseError{Raw: raw, Err: err}
		}
	}

	canonical := make(map[string]string, len(decoded))
	for key, value := range decoded {
		lang := strings.ToLower(strings.TrimSpace(key))
		if alt, ok := languageAlternatives[lang]; ok {
			lang = alt
		}
		canonical[lang] = strings.TrimSpace(value)
	}

	out := make(map[string]string, len(languages))
	for _, lang := range languages {
		if v, ok := canonical[lang]; ok && v != "" {
			out[lang] = v
		}
	}
	if len(out) == 0 {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("response contains none of the requested languages")}
	}
	return out, nil
}

func decodeMapping(raw string) (map[string]string, error) {
	var direct map[string]string
	if err := json.Unmarshal([]byte(raw), &direct); err == nil {
		return direct, nil
	}

	// Some providers nest the mapping one level deep under an arbitrary key.
	var nested map[string]map[string]string
	if err := json.Unmarshal([]byte(raw), &nested); err == nil && len(nested) == 1 {
		for _, inner := range nested {
			return inner, nil
		}
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(generic))
	for k, v := range generic {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no string values in response object")
	}
	return out, nil
}
