package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
		wantErr  bool
	}{
		{"pdf", "lecture.pdf", TypePDF, false},
		{"pdf uppercase", "LECTURE.PDF", TypePDF, false},
		{"powerpoint modern", "slides.pptx", TypePresentation, false},
		{"powerpoint legacy", "slides.ppt", TypePresentation, false},
		{"word modern", "essay.docx", TypeWord, false},
		{"word legacy", "essay.doc", TypeWord, false},
		{"spreadsheet", "grades.xlsx", TypeSpreadsheet, false},
		{"plain text", "notes.txt", TypeText, false},
		{"markdown", "README.md", TypeText, false},
		{"csv", "data.csv", TypeText, false},
		{"python", "main.py", TypeCode, false},
		{"go", "main.go", TypeCode, false},
		{"audio mp3", "recording.mp3", TypeAudio, false},
		{"audio wav", "recording.wav", TypeAudio, false},
		{"video", "lecture.mp4", TypeVideo, false},
		{"image", "diagram.png", TypeImage, false},
		{"unknown extension", "archive.tar.gz", "", true},
		{"no extension", "Makefile", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFileType(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("notes.txt"))
	assert.True(t, IsSupported("slides.pptx"))
	assert.False(t, IsSupported("archive.zip"))
}

func TestSupportedExtensions(t *testing.T) {
	groups := SupportedExtensions()

	assert.Contains(t, groups[TypePDF], ".pdf")
	assert.Contains(t, groups[TypeAudio], ".mp3")
	assert.Contains(t, groups[TypeCode], ".go")
	assert.NotEmpty(t, groups[TypeImage])
}
