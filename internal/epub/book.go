package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Extension is the file extension accepted for input books
const Extension = ".epub"

var (
	// ErrNotEPUB is returned for paths that do not name an .epub file
	ErrNotEPUB = errors.New("not an epub file")
	// ErrMissingRootfile is returned when container.xml names no package document
	ErrMissingRootfile = errors.New("container.xml has no rootfile")
)

const containerPath = "META-INF/container.xml"

// MetaEntry is one metadata element of the package document
type MetaEntry struct {
	Name  string // "title", "creator", "language" or the name attribute of <meta>
	Value string
}

// Book is an EPUB loaded into memory
type Book struct {
	Metadata []MetaEntry
	Spine    []string // Manifest ids in reading order
	TOC      string   // Manifest id of the table of contents

	packagePath string
	files       map[string]*file // Non-manifest entries: mimetype, META-INF, OPF
	order       []string         // Archive order of all entries
	items       []*Item
}

type file struct {
	header  zip.FileHeader
	content []byte
}

// Open reads the EPUB at path
func Open(name string) (*Book, error) {
	if !HasExtension(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotEPUB, name)
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read book: %w", err)
	}

	return NewReader(bytes.NewReader(data), int64(len(data)))
}

// HasExtension reports whether name ends in .epub
func HasExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// NewReader parses an EPUB archive of the given size
func NewReader(r io.ReaderAt, size int64) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	raw := make(map[string]*file, len(zr.File))
	b := &Book{files: make(map[string]*file)}
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		content, err := readZipFile(zf)
		if err != nil {
			return nil, err
		}
		raw[zf.Name] = &file{header: zf.FileHeader, content: content}
		b.order = append(b.order, zf.Name)
	}

	container, ok := raw[containerPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrMissingRootfile, containerPath)
	}
	b.packagePath, err = parseContainer(container.content)
	if err != nil {
		return nil, err
	}

	opf, ok := raw[b.packagePath]
	if !ok {
		return nil, fmt.Errorf("package document %s not found in archive", b.packagePath)
	}
	pkg, err := parsePackage(opf.content)
	if err != nil {
		return nil, err
	}

	b.Metadata = pkg.metadataEntries()
	for _, ref := range pkg.Spine.ItemRefs {
		b.Spine = append(b.Spine, ref.IDRef)
	}
	b.TOC = pkg.Spine.TOC

	base := path.Dir(b.packagePath)
	claimed := make(map[string]bool, len(pkg.Manifest))
	for _, mi := range pkg.Manifest {
		// Remote resources stay in the manifest but have no archive entry
		if isRemote(mi.Href) {
			continue
		}
		href, err := resolveHref(base, mi.Href)
		if err != nil {
			return nil, fmt.Errorf("manifest item %s: %w", mi.ID, err)
		}
		f, ok := raw[href]
		if !ok {
			return nil, fmt.Errorf("manifest item %s: %s not found in archive", mi.ID, href)
		}
		item := &Item{
			ID:         mi.ID,
			Href:       href,
			MediaType:  mi.MediaType,
			Properties: mi.Properties,
			Content:    f.content,
		}
		if b.TOC == "" && item.Kind() == KindNavigation {
			b.TOC = item.ID
		}
		b.items = append(b.items, item)
		claimed[href] = true
	}
	for href := range claimed {
		delete(raw, href)
	}

	// Whatever the manifest does not claim is carried over verbatim
	for name, f := range raw {
		b.files[name] = f
	}

	return b, nil
}

// Assemble starts an output book that shares metadata, spine, table of
// contents and package files with src but holds no items yet.
func Assemble(src *Book) *Book {
	b := &Book{
		Metadata:    append([]MetaEntry(nil), src.Metadata...),
		Spine:       append([]string(nil), src.Spine...),
		TOC:         src.TOC,
		packagePath: src.packagePath,
		files:       make(map[string]*file, len(src.files)),
		order:       append([]string(nil), src.order...),
	}
	for name, f := range src.files {
		b.files[name] = &file{
			header:  f.header,
			content: append([]byte(nil), f.content...),
		}
	}
	return b
}

// AddItem appends an item to the book
func (b *Book) AddItem(item *Item) {
	b.items = append(b.items, item)
}

// Items returns the manifest items in manifest order
func (b *Book) Items() []*Item {
	return b.items
}

// Item returns the item with the given manifest id
func (b *Book) Item(id string) (*Item, bool) {
	for _, it := range b.items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// Title returns the first title in the metadata
func (b *Book) Title() string {
	return b.Meta("title")
}

// Meta returns the first metadata value with the given name
func (b *Book) Meta(name string) string {
	for _, m := range b.Metadata {
		if m.Name == name {
			return m.Value
		}
	}
	return ""
}

// PackageDocument returns the raw OPF bytes
func (b *Book) PackageDocument() []byte {
	if f, ok := b.files[b.packagePath]; ok {
		return f.content
	}
	return nil
}

// BilingualPath derives the output path for a translated copy of input
func BilingualPath(input string) string {
	dir := filepath.Dir(input)
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, stem+"_bilingual"+Extension)
}

func readZipFile(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", zf.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", zf.Name, err)
	}
	return content, nil
}

func isRemote(href string) bool {
	u, err := url.Parse(href)
	return err == nil && (u.Scheme != "" || u.Host != "")
}

func resolveHref(base, href string) (string, error) {
	if i := strings.IndexAny(href, "#?"); i >= 0 {
		href = href[:i]
	}
	unescaped, err := url.PathUnescape(href)
	if err != nil {
		return "", err
	}
	if base == "." {
		return path.Clean(unescaped), nil
	}
	return path.Join(base, unescaped), nil
}

// Write stores the book at name, replacing any existing file
func (b *Book) Write(name string) error {
	out, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := b.WriteTo(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteTo serializes the book as a zip archive. The mimetype entry goes
// first and uncompressed; everything else keeps the source archive order.
func (b *Book) WriteTo(w io.Writer) error {
	zw := zip.NewWriter(w)

	// Items sharing an entry are written once, from the first of them
	byHref := make(map[string]*Item, len(b.items))
	for _, it := range b.items {
		if _, ok := byHref[it.Href]; !ok {
			byHref[it.Href] = it
		}
	}

	written := make(map[string]bool)
	names := b.order
	if f, ok := b.files["mimetype"]; ok {
		if err := writeEntry(zw, "mimetype", zip.Store, f.header.Modified, f.content); err != nil {
			return err
		}
		written["mimetype"] = true
	}

	for _, name := range names {
		if written[name] {
			continue
		}
		if f, ok := b.files[name]; ok {
			if err := writeEntry(zw, name, f.header.Method, f.header.Modified, f.content); err != nil {
				return err
			}
			written[name] = true
			continue
		}
		if it, ok := byHref[name]; ok {
			if err := writeEntry(zw, name, zip.Deflate, time.Time{}, it.Content); err != nil {
				return err
			}
			written[name] = true
		}
	}

	// Items that were not part of the source archive
	for _, it := range b.items {
		if written[it.Href] {
			continue
		}
		if err := writeEntry(zw, it.Href, zip.Deflate, time.Time{}, it.Content); err != nil {
			return err
		}
		written[it.Href] = true
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, method uint16, modified time.Time, content []byte) error {
	hdr := &zip.FileHeader{Name: name, Method: method}
	if !modified.IsZero() {
		hdr.Modified = modified
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// xmlDecoder returns a decoder tolerant of the charsets found in the wild
func xmlDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false
	d.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return d
}
