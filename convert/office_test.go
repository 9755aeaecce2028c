package convert

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZip builds a zip archive on disk from a name->content map.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

const docxSample = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Grade</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Alice</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

func TestExtractDocxText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "essay.docx")
	writeZip(t, path, map[string]string{
		"word/document.xml": docxSample,
	})

	text, err := extractDocxText(path)
	require.NoError(t, err)

	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "Second paragraph.")
	assert.Contains(t, text, "=== TABLES ===")
	assert.Contains(t, text, "Name | Grade")
	assert.Contains(t, text, "Alice | A")
}

func TestExtractDocxText_MissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	writeZip(t, path, map[string]string{
		"other.xml": "<x/>",
	})

	_, err := extractDocxText(path)
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestExtractDocxText_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain bytes"), 0644))

	_, err := extractDocxText(path)
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestExtractPptxText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slides.pptx")
	writeZip(t, path, map[string]string{
		"ppt/slides/slide2.xml":  `<p:sld xmlns:a="a" xmlns:p="p"><a:t>Second slide</a:t></p:sld>`,
		"ppt/slides/slide1.xml":  `<p:sld xmlns:a="a" xmlns:p="p"><a:t>Title slide</a:t></p:sld>`,
		"ppt/slides/slide10.xml": `<p:sld xmlns:a="a" xmlns:p="p"><a:t>Last slide</a:t></p:sld>`,
		"ppt/notesSlides/notesSlide1.xml": `<p:notes><a:t>speaker notes</a:t></p:notes>`,
	})

	text, err := extractPptxText(path)
	require.NoError(t, err)

	// Slides come back in numeric order, notes are excluded
	first := "=== Slide 1 ===\nTitle slide"
	assert.Contains(t, text, first)
	assert.Contains(t, text, "=== Slide 2 ===\nSecond slide")
	assert.Contains(t, text, "=== Slide 10 ===\nLast slide")
	assert.NotContains(t, text, "speaker notes")
	assert.Less(t, strings.Index(text, "Slide 2"), strings.Index(text, "Slide 10"))
	assert.True(t, strings.HasPrefix(text, first))
}

func TestExtractPptxText_EmptySlides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pptx")
	writeZip(t, path, map[string]string{
		"ppt/slides/slide1.xml": `<p:sld xmlns:p="p"></p:sld>`,
	})

	text, err := extractPptxText(path)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractXlsxText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.xlsx")
	writeZip(t, path, map[string]string{
		"xl/workbook.xml": `<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheets><sheet name="Term 1" sheetId="1"/><sheet name="Term 2" sheetId="2"/></sheets>
</workbook>`,
		"xl/sharedStrings.xml": `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <si><t>Student</t></si>
  <si><r><t>Final </t></r><r><t>Grade</t></r></si>
</sst>`,
	})

	text, err := extractXlsxText(path)
	require.NoError(t, err)

	assert.Contains(t, text, "=== Sheet: Term 1 ===")
	assert.Contains(t, text, "=== Sheet: Term 2 ===")
	assert.Contains(t, text, "Student")
	assert.Contains(t, text, "Final Grade")
}
