// Package localization reads and writes Localization.txt files: a comma
// delimited format with a fixed leading column set, target languages from
// column 7 on, quoted text columns and literal \n escapes.
package localization

import "strings"

// expectedLeading is the fixed prefix every Localization.txt header carries.
// Everything after it names a target language.
var expectedLeading = []string{
	"Key",
	"File",
	"Type",
	"UsedInMainMenu",
	"NoTranslate",
	"english",
	"Context / Alternate Text",
}

const (
	keyColumn     = 0
	englishColumn = 5
	// Index of the first target language column.
	languageOffset = 7
)

// quotedColumn reports whether the column at index i carries quoted text.
// That is the english column, the context column and every language column.
func quotedColumn(i int) bool {
	return i >= englishColumn
}

// splitLine splits one line into fields, honoring quoted fields with doubled
// embedded quotes. Quotes are kept; unquote strips them.
func splitLine(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
			field.WriteRune(c)
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(c)
		}
	}
	fields = append(fields, field.String())
	return fields
}

// unquote strips surrounding quotes and collapses doubled quotes. Literal \n
// sequences are left untouched.
func unquote(field string) string {
	if len(field) >= 2 && strings.HasPrefix(field, `"`) && strings.HasSuffix(field, `"`) {
		field = field[1 : len(field)-1]
		field = strings.ReplaceAll(field, `""`, `"`)
	}
	return field
}

// formatValue renders one field for writing: real linefeeds become the two
// character \n escape, and quoted columns get wrapped with embedded quotes
// doubled. Empty values stay empty regardless of column.
func formatValue(column int, value string) string {
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\n", `\n`)
	if quotedColumn(column) {
		value = strings.ReplaceAll(value, `"`, `""`)
		return `"` + value + `"`
	}
	return value
}
