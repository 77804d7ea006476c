package localization

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testHeader = "Key,File,Type,UsedInMainMenu,NoTranslate,english,Context / Alternate Text,german,french,japanese"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDiscoverFindsNestedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "Localization.txt", testHeader+"\n")
	b := writeFile(t, dir, filepath.Join("mods", "foo", "Localization.txt"), testHeader+"\n")
	writeFile(t, dir, "Localization.translated.txt", testHeader+"\n")
	writeFile(t, dir, "other.txt", "nothing\n")

	paths, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 files", paths)
	}
	found := map[string]bool{paths[0]: true, paths[1]: true}
	if !found[a] || !found[b] {
		t.Errorf("paths = %v, want %v and %v", paths, a, b)
	}
}

func TestLoadParsesEntriesAndLanguages(t *testing.T) {
	dir := t.TempDir()
	content := testHeader + "\n" +
		`GREETING,ui.xml,Label,True,,"Hello, world!","Shown at startup",,,` + "\n" +
		`FAREWELL,ui.xml,Label,,,"Goodbye",,"Auf Wiedersehen",,` + "\n"
	path := writeFile(t, dir, "Localization.txt", content)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(doc.Languages(), []string{"german", "french", "japanese"}) {
		t.Errorf("Languages = %v", doc.Languages())
	}
	entries := doc.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %v", entries)
	}
	if entries[0].Key != "GREETING" || entries[0].Text != "Hello, world!" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Text != "Goodbye" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestLoadRejectsWrongHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Localization.txt", "Key,Wrong,Header\nA,B,C\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected header error")
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	content := testHeader + "\n" +
		"GOOD,f,t,,,Hello,,,,\n" +
		",f,t,,,No key,,,,\n" +
		"TOOMANY,f,t,,,Hi,,,,,EXTRA,EXTRA\n"
	path := writeFile(t, dir, "Localization.txt", content)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Entries()) != 1 || doc.Entries()[0].Key != "GOOD" {
		t.Errorf("entries = %v", doc.Entries())
	}
}

func TestSplitLineQuotedFields(t *testing.T) {
	line := `KEY,file,,,"He said ""hi""","with, comma",plain`
	fields := splitLine(line)
	want := []string{"KEY", "file", "", "", `"He said ""hi"""`, `"with, comma"`, "plain"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("splitLine = %v, want %v", fields, want)
	}
	if got := unquote(fields[4]); got != `He said "hi"` {
		t.Errorf("unquote = %q", got)
	}
}

func TestFormatValueQuotingAndEscapes(t *testing.T) {
	if got := formatValue(keyColumn, "GREETING"); got != "GREETING" {
		t.Errorf("key column quoted: %q", got)
	}
	if got := formatValue(englishColumn, `He said "hi"`); got != `"He said ""hi"""` {
		t.Errorf("english column = %q", got)
	}
	if got := formatValue(languageOffset, "line1\nline2"); got != `"line1\nline2"` {
		t.Errorf("linefeed not escaped: %q", got)
	}
	if got := formatValue(englishColumn, ""); got != "" {
		t.Errorf("empty value = %q", got)
	}
}

func TestWriteAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := testHeader + "\n" +
		`GREETING,ui.xml,Label,,,"Hello",,,,` + "\n"
	path := writeFile(t, dir, "Localization.txt", content)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, lang := range doc.Languages() {
		if err := doc.Write("GREETING", lang, "tr-"+lang); err != nil {
			t.Fatalf("Write %s: %v", lang, err)
		}
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out := doc.OutputPath()
	if filepath.Base(out) != "Localization.translated.txt" {
		t.Errorf("output path = %s", out)
	}
	reloaded, err := Load(out)
	if err != nil {
		t.Fatalf("Load output: %v", err)
	}
	row := reloaded.rows[0]
	if row[languageOffset] != "tr-german" || row[languageOffset+2] != "tr-japanese" {
		t.Errorf("row = %v", row)
	}
}

func TestSaveFillsMissingPlaceholder(t *testing.T) {
	dir := t.TempDir()
	content := testHeader + "\n" +
		`GREETING,ui.xml,Label,,,"Hello",,,,` + "\n"
	path := writeFile(t, dir, "Localization.txt", content)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := doc.Write("GREETING", "german", "Hallo"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(doc.OutputPath())
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), `"`+missingPlaceholder+`"`) {
		t.Errorf("missing placeholder not written:\n%s", data)
	}
	if !strings.Contains(string(data), `"Hallo"`) {
		t.Errorf("translation not written:\n%s", data)
	}
}

func TestWritePreservesExistingTranslation(t *testing.T) {
	dir := t.TempDir()
	content := testHeader + "\n" +
		`GREETING,ui.xml,Label,,,"Hello",,"Original",,` + "\n"
	path := writeFile(t, dir, "Localization.txt", content)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := doc.Write("GREETING", "german", "Replacement"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if doc.rows[0][languageOffset] != "Original" {
		t.Errorf("source translation overwritten: %v", doc.rows[0])
	}
}

func TestWriteUnknownKeyAndLanguage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Localization.txt",
		testHeader+"\n"+`GREETING,f,t,,,"Hello",,,,`+"\n")

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := doc.Write("NOPE", "german", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := doc.Write("GREETING", "klingon", "x"); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestSaveRoundTripsLinefeedsAndQuotes(t *testing.T) {
	dir := t.TempDir()
	content := testHeader + "\n" +
		`MULTI,f,t,,,"Line one\nLine two",,,,` + "\n"
	path := writeFile(t, dir, "Localization.txt", content)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Entries()[0].Text != `Line one\nLine two` {
		t.Fatalf("escape not preserved on read: %q", doc.Entries()[0].Text)
	}
	if err := doc.Write("MULTI", "german", `Zeile eins\nZeile zwei`); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, lang := range []string{"french", "japanese"} {
		if err := doc.Write("MULTI", lang, `x "y"`); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(doc.OutputPath())
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), `"Zeile eins\nZeile zwei"`) {
		t.Errorf("escaped linefeed mangled:\n%s", data)
	}
	if !strings.Contains(string(data), `"x ""y"""`) {
		t.Errorf("quotes not doubled:\n%s", data)
	}
}
