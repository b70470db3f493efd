package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Chapter describes one XHTML chapter of a generated test book
type Chapter struct {
	ID         string
	Paragraphs []string // Each becomes a <p> element
}

// StyleSheet is the CSS stored in every generated book
const StyleSheet = "p { margin: 0; }\n"

// CoverImage is the fake JPEG stored in every generated book
var CoverImage = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}

// ChapterXHTML renders the markup used for a generated chapter
func ChapterXHTML(ch Chapter) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml"><head><title>` + ch.ID + `</title></head><body>`)
	for _, p := range ch.Paragraphs {
		b.WriteString("<p>" + p + "</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// PackageDocument renders the OPF used for a generated book
func PackageDocument(title string, chapters []Chapter) string {
	var manifest, spine strings.Builder
	for _, ch := range chapters {
		fmt.Fprintf(&manifest, `<item id="%s" href="text/%s.xhtml" media-type="application/xhtml+xml"/>`, ch.ID, ch.ID)
		fmt.Fprintf(&spine, `<itemref idref="%s"/>`, ch.ID)
	}

	return `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uid">
<metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>` + title + `</dc:title>
<dc:creator>Test Author</dc:creator>
<dc:language>en</dc:language>
<dc:identifier id="uid">urn:uuid:1234</dc:identifier>
<meta name="cover" content="cover"/>
</metadata>
<manifest>
<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
<item id="css" href="style.css" media-type="text/css"/>
<item id="cover" href="images/cover.jpg" media-type="image/jpeg"/>
` + manifest.String() + `
</manifest>
<spine toc="ncx">` + spine.String() + `</spine>
</package>`
}

// TOCDocument renders the NCX used for a generated book
func TOCDocument(chapters []Chapter) string {
	var points strings.Builder
	for i, ch := range chapters {
		fmt.Fprintf(&points, `<navPoint id="np%d" playOrder="%d"><navLabel><text>%s</text></navLabel><content src="text/%s.xhtml"/></navPoint>`,
			i+1, i+1, ch.ID, ch.ID)
	}
	return `<?xml version="1.0" encoding="utf-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1"><navMap>` + points.String() + `</navMap></ncx>`
}

// BuildEPUB creates an in-memory EPUB with the given chapters, a stylesheet,
// a cover image and an NCX table of contents
func BuildEPUB(t *testing.T, title string, chapters []Chapter) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	add := func(name string, method uint16, content []byte) {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	add("mimetype", zip.Store, []byte("application/epub+zip"))
	add("META-INF/container.xml", zip.Deflate, []byte(`<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
<rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`))
	add("OEBPS/content.opf", zip.Deflate, []byte(PackageDocument(title, chapters)))
	add("OEBPS/toc.ncx", zip.Deflate, []byte(TOCDocument(chapters)))
	add("OEBPS/style.css", zip.Deflate, []byte(StyleSheet))
	add("OEBPS/images/cover.jpg", zip.Store, CoverImage)
	for _, ch := range chapters {
		add("OEBPS/text/"+ch.ID+".xhtml", zip.Deflate, []byte(ChapterXHTML(ch)))
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}
	return buf.Bytes()
}

// WriteEPUB stores a generated book under dir and returns its path
func WriteEPUB(t *testing.T, dir, name, title string, chapters []Chapter) string {
	t.Helper()

	path := filepath.Join(dir, name)
	CreateTestFile(t, path, BuildEPUB(t, title, chapters))
	return path
}

// ReadZipEntries returns every entry of the zip archive at path, keyed by name
func ReadZipEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Failed to open archive %s: %v", path, err)
	}
	defer zr.Close()

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open %s: %v", f.Name, err)
		}
		var b bytes.Buffer
		if _, err := b.ReadFrom(rc); err != nil {
			t.Fatalf("Failed to read %s: %v", f.Name, err)
		}
		rc.Close()
		entries[f.Name] = b.Bytes()
	}
	return entries
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}
