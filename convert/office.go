package convert

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// convertWord extracts text from Word documents. Modern .docx files are
// parsed directly as OOXML; legacy .doc files go through LibreOffice first.
func (s *Service) convertWord(ctx context.Context, path, sourceName string) (*Result, error) {
	if strings.EqualFold(filepath.Ext(sourceName), ".doc") {
		converted, cleanup, err := s.convertLegacy(ctx, path, "docx")
		if err != nil {
			s.logger.Warn("legacy doc conversion failed, using placeholder", "err", err)
			return &Result{Text: legacyPlaceholder(sourceName, ".doc", ".docx", "Word"), Placeholder: true}, nil
		}
		defer cleanup()
		path = converted
	}

	text, err := extractDocxText(path)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrNoText
	}
	return &Result{Text: text}, nil
}

// convertPresentation extracts text from PowerPoint files. Legacy .ppt files
// go through LibreOffice; when that fails a placeholder explains how to
// re-save the file as .pptx.
func (s *Service) convertPresentation(ctx context.Context, path, sourceName string) (*Result, error) {
	if strings.EqualFold(filepath.Ext(sourceName), ".ppt") {
		converted, cleanup, err := s.convertLegacy(ctx, path, "pptx")
		if err != nil {
			s.logger.Warn("legacy ppt conversion failed, using placeholder", "err", err)
			return &Result{Text: legacyPlaceholder(sourceName, ".ppt", ".pptx", "PowerPoint"), Placeholder: true}, nil
		}
		defer cleanup()
		path = converted
	}

	text, err := extractPptxText(path)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrNoText
	}
	return &Result{Text: text}, nil
}

// convertSpreadsheet extracts cell text from Excel files.
func (s *Service) convertSpreadsheet(ctx context.Context, path, sourceName string) (*Result, error) {
	if strings.EqualFold(filepath.Ext(sourceName), ".xls") {
		converted, cleanup, err := s.convertLegacy(ctx, path, "xlsx")
		if err != nil {
			s.logger.Warn("legacy xls conversion failed, using placeholder", "err", err)
			return &Result{Text: legacyPlaceholder(sourceName, ".xls", ".xlsx", "Excel"), Placeholder: true}, nil
		}
		defer cleanup()
		path = converted
	}

	text, err := extractXlsxText(path)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrNoText
	}
	return &Result{Text: text}, nil
}

// convertLegacy runs LibreOffice headless to convert a legacy Office file to
// its modern OOXML equivalent. Returns the converted file path and a cleanup
// function for the temp directory.
func (s *Service) convertLegacy(ctx context.Context, path, targetExt string) (string, func(), error) {
	if !s.runner.Available(s.libreOffice) {
		return "", nil, fmt.Errorf("%w: %s not found", ErrToolFailed, s.libreOffice)
	}

	tmpDir, err := os.MkdirTemp("", "corpus-convert-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	_, err = s.runner.Run(ctx, s.libreOffice,
		"--headless", "--norestore", "--invisible", "--nofirststartwizard",
		"--convert-to", targetExt, "--outdir", tmpDir, path)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	converted := filepath.Join(tmpDir, base+"."+targetExt)
	if _, err := os.Stat(converted); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%w: converted file missing: %v", ErrToolFailed, err)
	}

	return converted, cleanup, nil
}

// legacyPlaceholder is the stand-in text stored when a legacy Office file
// cannot be converted. It tells the student how to re-save the file.
func legacyPlaceholder(name, oldExt, newExt, product string) string {
	return fmt.Sprintf("[Document: %s] - Cannot extract text from %s (legacy %s format). "+
		"Please convert your file to %s format and upload again.\n\n"+
		"How to convert:\n"+
		"1. Open the file in Microsoft %s or LibreOffice\n"+
		"2. Go to File > Save As\n"+
		"3. Change the format to the modern %s format\n"+
		"4. Upload the new %s file",
		name, oldExt, product, newExt, product, newExt, newExt)
}

// docxDocument mirrors the parts of word/document.xml we read.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
		Tables     []docxTable     `xml:"tbl"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

type docxTable struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []docxParagraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

func (p docxParagraph) text() string {
	var b strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// extractDocxText parses word/document.xml out of a .docx archive.
// Paragraph text comes first; table contents follow under a TABLES header,
// one row per line with cells joined by " | ".
func extractDocxText(path string) (string, error) {
	content, err := readZipFile(path, "word/document.xml")
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", fmt.Errorf("%w: no word/document.xml", ErrInvalidFile)
	}

	var doc docxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	var lines []string
	for _, para := range doc.Body.Paragraphs {
		if text := strings.TrimSpace(para.text()); text != "" {
			lines = append(lines, text)
		}
	}

	if len(doc.Body.Tables) > 0 {
		lines = append(lines, "\n=== TABLES ===")
		for i, table := range doc.Body.Tables {
			lines = append(lines, fmt.Sprintf("--- Table %d ---", i+1))
			for _, row := range table.Rows {
				cells := make([]string, 0, len(row.Cells))
				for _, cell := range row.Cells {
					var parts []string
					for _, para := range cell.Paragraphs {
						if text := strings.TrimSpace(para.text()); text != "" {
							parts = append(parts, text)
						}
					}
					cells = append(cells, strings.Join(parts, " "))
				}
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPptxText pulls the text runs out of every slide in a .pptx archive,
// in slide order.
func extractPptxText(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer reader.Close()

	type slide struct {
		number int
		text   string
	}
	var slides []slide

	for _, file := range reader.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		number, _ := strconv.Atoi(m[1])

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}

		slides = append(slides, slide{number: number, text: slideText(content)})
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var sections []string
	for _, sl := range slides {
		if strings.TrimSpace(sl.text) == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("=== Slide %d ===\n%s", sl.number, sl.text))
	}

	return strings.Join(sections, "\n\n"), nil
}

// slideText collects the contents of every <a:t> element in a slide.
func slideText(content []byte) string {
	decoder := xml.NewDecoder(strings.NewReader(string(content)))

	var lines []string
	inText := false
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if tok.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				if text := string(tok); text != "" {
					lines = append(lines, text)
				}
			}
		}
	}

	return strings.Join(lines, "\n")
}

// xlsxSharedStrings mirrors xl/sharedStrings.xml. Each si holds either a
// plain t element or rich-text runs with their own t elements.
type xlsxSharedStrings struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

type xlsxWorkbook struct {
	Sheets struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

// extractXlsxText extracts the sheet names and all shared text cells from a
// .xlsx archive.
func extractXlsxText(path string) (string, error) {
	var lines []string

	if content, err := readZipFile(path, "xl/workbook.xml"); err == nil && content != nil {
		var wb xlsxWorkbook
		if err := xml.Unmarshal(content, &wb); err == nil {
			for _, sheet := range wb.Sheets.Sheets {
				lines = append(lines, fmt.Sprintf("=== Sheet: %s ===", sheet.Name))
			}
		}
	}

	content, err := readZipFile(path, "xl/sharedStrings.xml")
	if err != nil {
		return "", err
	}
	if content != nil {
		var sst xlsxSharedStrings
		if err := xml.Unmarshal(content, &sst); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		for _, item := range sst.Items {
			text := item.Text
			if text == "" {
				var parts []string
				for _, run := range item.Runs {
					parts = append(parts, run.Text)
				}
				text = strings.Join(parts, "")
			}
			if text = strings.TrimSpace(text); text != "" {
				lines = append(lines, text)
			}
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// readZipFile returns the named file's content from a zip archive, or nil if
// the archive has no such file.
func readZipFile(path, name string) ([]byte, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		return content, nil
	}
	return nil, nil
}
