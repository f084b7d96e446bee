package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultPart  = "word/document.xml"
	contentTypesPart = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	textRun      = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// Override elements may list PartName and ContentType in either order.
	mainPartName = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"`)
	mainPartRev  = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"[^>]+PartName="([^"]+)"`)
)

// extractDOCX returns the text runs of a .docx body, one line per paragraph.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	part := docxDefaultPart
	if types, err := readZipPart(zr, contentTypesPart); err == nil {
		if m := mainPartName.FindSubmatch(types); m != nil {
			part = strings.TrimPrefix(string(m[1]), "/")
		} else if m := mainPartRev.FindSubmatch(types); m != nil {
			part = strings.TrimPrefix(string(m[1]), "/")
		}
	}

	body, err := readZipPart(zr, part)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	lines := make([]string, 0)
	for _, para := range paragraphEnd.Split(string(body), -1) {
		runs := textRun.FindAllStringSubmatch(para, -1)
		if len(runs) == 0 {
			continue
		}
		var b strings.Builder
		for _, r := range runs {
			b.WriteString(r[1])
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
