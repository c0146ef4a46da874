package style

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
)

// xmlHeader matches the declaration GeoServer writes for uploaded styles.
const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

// DefaultLayerName is the UserLayer name used when none is given.
const DefaultLayerName = "raster_layer"

// Document is an SLD 1.0.0 StyledLayerDescriptor with one raster rule.
type Document struct {
	XMLName        xml.Name  `xml:"StyledLayerDescriptor"`
	XMLNS          string    `xml:"xmlns,attr"`
	XMLNSOgc       string    `xml:"xmlns:ogc,attr"`
	XMLNSXlink     string    `xml:"xmlns:xlink,attr"`
	XMLNSXsi       string    `xml:"xmlns:xsi,attr"`
	SchemaLocation string    `xml:"xsi:schemaLocation,attr"`
	Version        string    `xml:"version,attr"`
	UserLayer      UserLayer `xml:"UserLayer"`
}

// UserLayer names the layer the style targets.
type UserLayer struct {
	Name      string    `xml:"Name"`
	UserStyle UserStyle `xml:"UserStyle"`
}

// UserStyle carries the human-facing style metadata.
type UserStyle struct {
	Name             string           `xml:"Name"`
	Title            string           `xml:"Title"`
	Abstract         string           `xml:"Abstract"`
	FeatureTypeStyle FeatureTypeStyle `xml:"FeatureTypeStyle"`
}

// FeatureTypeStyle holds the single raster rule.
type FeatureTypeStyle struct {
	FeatureTypeName string `xml:"FeatureTypeName"`
	Rule            Rule   `xml:"Rule"`
}

// Rule wraps the raster symbolizer.
type Rule struct {
	RasterSymbolizer RasterSymbolizer `xml:"RasterSymbolizer"`
}

// RasterSymbolizer renders the coverage through a colour map.
type RasterSymbolizer struct {
	Opacity  string   `xml:"Opacity"`
	ColorMap ColorMap `xml:"ColorMap"`
}

// ColorMap is an interval colour map.
type ColorMap struct {
	Type    string          `xml:"type,attr"`
	Entries []ColorMapEntry `xml:"ColorMapEntry"`
}

// ColorMapEntry is one class: values up to Quantity get Color.
type ColorMapEntry struct {
	Color    string `xml:"color,attr"`
	Quantity string `xml:"quantity,attr"`
	Label    string `xml:"label,attr"`
}

// NewDocument builds the SLD for a scheme. An empty layerName uses
// DefaultLayerName.
func NewDocument(s *Scheme, layerName string) (*Document, error) {
	if s == nil || s.Len() == 0 {
		return nil, eris.New("style: empty scheme")
	}
	if len(s.Colors) != s.Len() || len(s.Labels) != s.Len() {
		return nil, eris.Errorf("style: scheme has %d breaks, %d colours, %d labels", s.Len(), len(s.Colors), len(s.Labels))
	}
	if layerName == "" {
		layerName = DefaultLayerName
	}

	entries := make([]ColorMapEntry, s.Len())
	for i := range entries {
		entries[i] = ColorMapEntry{
			Color:    s.Colors[i],
			Quantity: strconv.FormatFloat(s.Breaks[i], 'g', -1, 64),
			Label:    s.Labels[i],
		}
	}
	n := s.Len()
	return &Document{
		XMLNS:          "http://www.opengis.net/sld",
		XMLNSOgc:       "http://www.opengis.net/ogc",
		XMLNSXlink:     "http://www.w3.org/1999/xlink",
		XMLNSXsi:       "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: "http://www.opengis.net/sld http://schemas.opengis.net/sld/1.0.0/StyledLayerDescriptor.xsd",
		Version:        "1.0.0",
		UserLayer: UserLayer{
			Name: layerName,
			UserStyle: UserStyle{
				Name:     "raster",
				Title:    fmt.Sprintf("%d-Class Raster Style", n),
				Abstract: fmt.Sprintf("A style for rasters with %d distinct classes", n),
				FeatureTypeStyle: FeatureTypeStyle{
					FeatureTypeName: "Feature",
					Rule: Rule{RasterSymbolizer: RasterSymbolizer{
						Opacity:  "1.0",
						ColorMap: ColorMap{Type: "intervals", Entries: entries},
					}},
				},
			},
		},
	}, nil
}

// Marshal renders the document with a UTF-8 declaration and tab indent.
func (d *Document) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(d, "", "\t")
	if err != nil {
		return nil, eris.Wrap(err, "style: marshal sld")
	}
	var buf bytes.Buffer
	buf.Grow(len(xmlHeader) + len(body) + 1)
	buf.WriteString(xmlHeader)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// BuildSLD renders the SLD bytes for a scheme.
func BuildSLD(s *Scheme, layerName string) ([]byte, error) {
	doc, err := NewDocument(s, layerName)
	if err != nil {
		return nil, err
	}
	return doc.Marshal()
}

// WriteSLD renders the scheme to path.
func WriteSLD(path string, s *Scheme, layerName string) error {
	data, err := BuildSLD(s, layerName)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "style: write %s", path)
	}
	return nil
}

// ParseSLD decodes an SLD produced by BuildSLD.
func ParseSLD(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "style: parse sld")
	}
	return &doc, nil
}
