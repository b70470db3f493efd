package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"codeberg.org/snonux/bilingual/internal"
)

// Tree is a parsed chapter
type Tree struct {
	root *html.Node
	decl []byte // XML declaration, which the HTML parser would turn into a comment
}

// Paragraph is an eligible <p> element of a chapter
type Paragraph struct {
	ID   string // "<section>#<ordinal>", stable across runs
	Text string // Whitespace-normalized text content
	node *html.Node
}

// Parse builds a tree from chapter markup
func Parse(content []byte) (*Tree, error) {
	decl, body := splitDeclaration(content)

	root, err := html.Parse(bytes.NewReader(expandSelfClosing(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Tree{root: root, decl: decl}, nil
}

// Render serializes the tree back to markup
func (t *Tree) Render() ([]byte, error) {
	var buf bytes.Buffer
	if len(t.decl) > 0 {
		buf.Write(t.decl)
		buf.WriteByte('\n')
	}
	if err := html.Render(&buf, t.root); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// Eligible reports whether a paragraph with this text should be translated.
// Empty paragraphs and bare page numbers are skipped.
func Eligible(text string) bool {
	return text != "" && !internal.IsDigits(text)
}

// Extract returns the eligible paragraphs of the tree in document order
func Extract(t *Tree, section string) []Paragraph {
	var paragraphs []Paragraph
	ordinal := 0
	for _, n := range elements(t.root, atom.P) {
		ordinal++
		text := internal.NormalizeSpace(textContent(n))
		if !Eligible(text) {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			ID:   fmt.Sprintf("%s#%d", section, ordinal),
			Text: text,
			node: n,
		})
	}
	return paragraphs
}

// Count returns the number of <p> elements, eligible or not
func Count(t *Tree) int {
	return len(elements(t.root, atom.P))
}

// InsertTwin places a copy of the paragraph holding text right after it.
// The original paragraph is left as it was.
func InsertTwin(p Paragraph, text string) error {
	if p.node == nil || p.node.Parent == nil {
		return fmt.Errorf("paragraph %s is not attached to a tree", p.ID)
	}

	twin := &html.Node{
		Type:      html.ElementNode,
		DataAtom:  p.node.DataAtom,
		Data:      p.node.Data,
		Namespace: p.node.Namespace,
	}
	for _, a := range p.node.Attr {
		// Anchors keep pointing at the original
		if a.Namespace == "" && a.Key == "id" {
			continue
		}
		twin.Attr = append(twin.Attr, a)
	}
	twin.AppendChild(&html.Node{Type: html.TextNode, Data: text})

	p.node.Parent.InsertBefore(twin, p.node.NextSibling)
	return nil
}

func elements(root *html.Node, a atom.Atom) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = append(found, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func splitDeclaration(content []byte) (decl, body []byte) {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")), " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("<?xml")) {
		return nil, content
	}
	end := bytes.Index(trimmed, []byte("?>"))
	if end < 0 {
		return nil, content
	}
	return trimmed[:end+2], trimmed[end+2:]
}

// selfClosingTag matches an XHTML empty-element tag such as <a id="n1"/>
var selfClosingTag = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:_-]*)((?:\s+[^\s"'<>/=]+(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'<>]+))?)*)\s*/>`)

// expandSelfClosing rewrites <tag/> as <tag></tag> for elements that are not
// void in HTML. The HTML parser ignores the slash and would otherwise keep the
// element open until the end of its parent.
func expandSelfClosing(body []byte) []byte {
	return selfClosingTag.ReplaceAllFunc(body, func(tag []byte) []byte {
		m := selfClosingTag.FindSubmatch(tag)
		name := string(m[1])
		if isVoid(name) {
			return tag
		}

		out := make([]byte, 0, len(tag)+len(name)+3)
		out = append(out, '<')
		out = append(out, m[1]...)
		out = append(out, m[2]...)
		out = append(out, "></"...)
		out = append(out, m[1]...)
		return append(out, '>')
	})
}

func isVoid(name string) bool {
	switch atom.Lookup([]byte(strings.ToLower(name))) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Keygen, atom.Link, atom.Meta, atom.Param, atom.Source,
		atom.Track, atom.Wbr:
		return true
	}
	return false
}
