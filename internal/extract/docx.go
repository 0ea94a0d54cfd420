package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxZipEntrySize limits the decompressed size of word/document.xml (100 MB).
const maxZipEntrySize = 100 << 20

// DOCX extracts paragraph text from word/document.xml, one paragraph per line.
// Table cells are separated by tabs.
func DOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("missing word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("read document.xml: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()

	lr := &io.LimitedReader{R: rc, N: maxZipEntrySize + 1}
	text, err := docxText(lr)
	if err != nil {
		return "", err
	}
	if lr.N <= 0 {
		return "", fmt.Errorf("document.xml exceeds %d byte limit", maxZipEntrySize)
	}
	return text, nil
}

// docxText streams WordprocessingML tokens, keeping w:t text and turning
// paragraphs, breaks and tabs into whitespace.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			case "tc":
				b.WriteByte('\t')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
