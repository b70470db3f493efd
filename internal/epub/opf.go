package epub

import (
	"encoding/xml"
	"fmt"
	"strings"
)

type containerXML struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Metadata struct {
		Entries []opfMeta `xml:",any"`
	} `xml:"metadata"`
	Manifest []opfItem `xml:"manifest>item"`
	Spine    struct {
		TOC      string `xml:"toc,attr"`
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type opfMeta struct {
	XMLName  xml.Name
	Name     string `xml:"name,attr"`
	Property string `xml:"property,attr"`
	Content  string `xml:"content,attr"`
	Value    string `xml:",chardata"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

func parseContainer(data []byte) (string, error) {
	var c containerXML
	if err := xmlDecoder(data).Decode(&c); err != nil {
		return "", fmt.Errorf("failed to parse container.xml: %w", err)
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}
	return "", ErrMissingRootfile
}

func parsePackage(data []byte) (*opfPackage, error) {
	var pkg opfPackage
	if err := xmlDecoder(data).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package document: %w", err)
	}
	return &pkg, nil
}

func (p *opfPackage) metadataEntries() []MetaEntry {
	var entries []MetaEntry
	for _, m := range p.Metadata.Entries {
		name := m.XMLName.Local
		value := strings.TrimSpace(m.Value)
		if name == "meta" {
			switch {
			case m.Name != "":
				name, value = m.Name, m.Content
			case m.Property != "":
				name = m.Property
			}
		}
		entries = append(entries, MetaEntry{Name: name, Value: value})
	}
	return entries
}
