package localization

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"language-translator-go/logcolors"
	"language-translator-go/processor"

	log "github.com/sirupsen/logrus"
)

// missingPlaceholder fills language cells that never got a translation, so
// the output keeps its column grid intact.
const missingPlaceholder = "[MISSING TRANSLATION]"

// Document is one parsed Localization.txt file. It satisfies
// processor.Document; translations are written into the in-memory rows and
// Save renders the .translated.txt next to the source.
type Document struct {
	path      string
	header    []string
	languages []string
	rows      [][]string
	rowByKey  map[string]int
}

// Discover walks root and returns every Localization.txt path found.
func Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), "Localization.txt") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering localization files under %s: %w", root, err)
	}
	log.Infof("%s Found %d Localization.txt files under %s", logcolors.LogFile, len(paths), root)
	return paths, nil
}

// Load parses a Localization.txt file. The seven leading header columns must
// match the known layout; everything after them is a target language.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return nil, fmt.Errorf("%s is empty", path)
	}
	header := splitLine(strings.TrimRight(scanner.Text(), "\r\n"))
	if err := checkHeader(header); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	doc := &Document{
		path:      path,
		header:    header,
		languages: header[languageOffset:],
		rowByKey:  make(map[string]int),
	}

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitLine(line)
		for i := range fields {
			fields[i] = unquote(fields[i])
		}
		if len(fields) > len(header) {
			log.Warnf("%s %s line %d has %d fields, expected %d, skipping",
				logcolors.LogFile, path, lineNo, len(fields), len(header))
			continue
		}
		for len(fields) < len(header) {
			fields = append(fields, "")
		}
		if fields[keyColumn] == "" {
			log.Warnf("%s %s line %d has no key, skipping", logcolors.LogFile, path, lineNo)
			continue
		}
		doc.rowByKey[fields[keyColumn]] = len(doc.rows)
		doc.rows = append(doc.rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	log.Debugf("%s Loaded %s: %d entries, languages %v", logcolors.LogFile,
		path, len(doc.rows), doc.languages)
	return doc, nil
}

func checkHeader(header []string) error {
	if len(header) <= languageOffset {
		return fmt.Errorf("header has %d columns, need at least %d", len(header), languageOffset+1)
	}
	for i, want := range expectedLeading {
		if header[i] != want {
			return fmt.Errorf("header column %d is %q, want %q", i, header[i], want)
		}
	}
	return nil
}

// Name returns the source file path.
func (d *Document) Name() string { return d.path }

// Languages lists the target languages in header order.
func (d *Document) Languages() []string {
	return append([]string(nil), d.languages...)
}

// Entries yields (key, english text) for every row.
func (d *Document) Entries() []processor.Entry {
	entries := make([]processor.Entry, 0, len(d.rows))
	for _, row := range d.rows {
		entries = append(entries, processor.Entry{
			Key:  row[keyColumn],
			Text: row[englishColumn],
		})
	}
	return entries
}

// Write stores a translation into the in-memory row for key. Cells that
// already hold a value from the source file are kept.
func (d *Document) Write(key, language, translation string) error {
	idx, ok := d.rowByKey[key]
	if !ok {
		return fmt.Errorf("unknown key %q in %s", key, d.path)
	}
	col := d.languageColumn(language)
	if col < 0 {
		return fmt.Errorf("unknown language %q in %s", language, d.path)
	}
	if d.rows[idx][col] == "" {
		d.rows[idx][col] = translation
	}
	return nil
}

func (d *Document) languageColumn(language string) int {
	for i, lang := range d.languages {
		if lang == language {
			return languageOffset + i
		}
	}
	return -1
}

// OutputPath is where Save writes the translated file.
func (d *Document) OutputPath() string {
	return strings.TrimSuffix(d.path, ".txt") + ".translated.txt"
}

// Save renders the translated file next to the source and sanity checks it.
// Language cells still empty after translation get the missing placeholder.
func (d *Document) Save() error {
	out := d.OutputPath()
	log.Infof("%s Writing %d entries to %s", logcolors.LogWriter, len(d.rows), out)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, strings.Join(d.header, ","))
	for _, row := range d.rows {
		formatted := make([]string, len(row))
		for i, value := range row {
			if value == "" && i >= languageOffset {
				value = missingPlaceholder
			}
			formatted[i] = formatValue(i, value)
		}
		fmt.Fprintln(w, strings.Join(formatted, ","))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", out, err)
	}

	if err := d.sanityCheck(out); err != nil {
		return fmt.Errorf("sanity check on %s: %w", out, err)
	}
	log.Infof("%s Sanity check passed for %s", logcolors.LogWriter, out)
	return nil
}

// sanityCheck re-reads the written file and verifies entry count, header,
// field counts and quoting before the output is trusted.
func (d *Document) sanityCheck(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return fmt.Errorf("written file is empty")
	}
	if got := scanner.Text(); got != strings.Join(d.header, ",") {
		return fmt.Errorf("header mismatch: %q", got)
	}

	entries := 0
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries++
		fields := splitLine(line)
		if len(fields) != len(d.header) {
			return fmt.Errorf("line %d has %d fields, expected %d", lineNo, len(fields), len(d.header))
		}
		for i, field := range fields {
			if strings.Contains(field, "\n") {
				return fmt.Errorf("line %d field %d contains an unescaped linefeed", lineNo, i)
			}
			if quotedColumn(i) && field != "" {
				if !strings.HasPrefix(field, `"`) || !strings.HasSuffix(field, `"`) {
					return fmt.Errorf("line %d field %d is not quoted", lineNo, i)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if entries != len(d.rows) {
		return fmt.Errorf("entry count mismatch: wrote %d, read back %d", len(d.rows), entries)
	}
	return nil
}
