package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// Unknown is reported for metadata the document does not carry.
const Unknown = "Unknown"

// Metadata describes a document. Dates are YYYY-MM-DD when they parse.
type Metadata struct {
	Title            string `json:"title"`
	Author           string `json:"author"`
	CreationDate     string `json:"creation_date"`
	ModificationDate string `json:"modification_date"`
	PageCount        int    `json:"page_count"`
}

// DefaultMetadata is what a document without properties reports.
func DefaultMetadata() Metadata {
	return Metadata{
		Title:            Unknown,
		Author:           Unknown,
		CreationDate:     Unknown,
		ModificationDate: Unknown,
	}
}

// Map renders the metadata with the wire field names.
func (m Metadata) Map() map[string]any {
	return map[string]any{
		"title":             m.Title,
		"author":            m.Author,
		"creation_date":     m.CreationDate,
		"modification_date": m.ModificationDate,
		"page_count":        m.PageCount,
	}
}

func pdfMetadata(r *pdf.Reader) Metadata {
	md := DefaultMetadata()
	md.PageCount = r.NumPage()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return md
	}
	md.Title = orUnknown(info.Key("Title").Text(), info.Key("Subject").Text())
	md.Author = orUnknown(info.Key("Author").Text(), info.Key("Creator").Text())
	md.CreationDate = FormatDate(info.Key("CreationDate").Text())
	md.ModificationDate = FormatDate(info.Key("ModDate").Text())
	return md
}

type coreProps struct {
	Title    string `xml:"title"`
	Subject  string `xml:"subject"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

type appProps struct {
	Pages string `xml:"Pages"`
}

// docxMetadata reads docProps/core.xml and docProps/app.xml.
func docxMetadata(data []byte) Metadata {
	md := DefaultMetadata()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return md
	}
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "docProps/core.xml":
			var core coreProps
			if readXML(f, &core) == nil {
				md.Title = orUnknown(core.Title, core.Subject)
				md.Author = orUnknown(core.Creator)
				md.CreationDate = FormatDate(core.Created)
				md.ModificationDate = FormatDate(core.Modified)
			}
		case "docProps/app.xml":
			var app appProps
			if readXML(f, &app) == nil {
				if n, err := strconv.Atoi(strings.TrimSpace(app.Pages)); err == nil && n > 0 {
					md.PageCount = n
				}
			}
		}
	}
	return md
}

func readXML(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(raw, v)
}

var pdfDatePattern = regexp.MustCompile(`^D:(\d{4})(\d{2})?(\d{2})?`)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
}

// FormatDate normalizes a document date to YYYY-MM-DD. Empty input is Unknown and
// unparseable input is returned as given.
func FormatDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Unknown
	}
	if m := pdfDatePattern.FindStringSubmatch(s); m != nil {
		month, day := m[2], m[3]
		if month == "" {
			month = "01"
		}
		if day == "" {
			day = "01"
		}
		return m[1] + "-" + month + "-" + day
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func orUnknown(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return Unknown
}
