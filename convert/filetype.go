package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// File type classes assigned during detection. The class decides which
// extraction path a file takes and is reported back to clients.
const (
	TypeAudio        = "audio"
	TypeVideo        = "video"
	TypePDF          = "pdf"
	TypePresentation = "pptx"
	TypeWord         = "docx"
	TypeSpreadsheet  = "excel"
	TypeCode         = "code"
	TypeImage        = "image"
	TypeText         = "text"
)

var (
	audioExtensions = map[string]bool{
		".mp3": true, ".wav": true, ".m4a": true, ".flac": true, ".ogg": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true,
	}
	pdfExtensions = map[string]bool{
		".pdf": true,
	}
	presentationExtensions = map[string]bool{
		".pptx": true, ".ppt": true,
	}
	wordExtensions = map[string]bool{
		".docx": true, ".doc": true,
	}
	spreadsheetExtensions = map[string]bool{
		".xlsx": true, ".xls": true,
	}
	codeExtensions = map[string]bool{
		".cs": true, ".py": true, ".java": true, ".cpp": true, ".c": true,
		".h": true, ".hpp": true, ".js": true, ".ts": true, ".jsx": true,
		".tsx": true, ".go": true, ".rs": true, ".rb": true, ".php": true,
		".swift": true, ".kt": true, ".scala": true, ".r": true, ".m": true,
		".mm": true,
	}
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
		".tiff": true, ".tif": true, ".webp": true,
	}
	textExtensions = map[string]bool{
		".txt": true, ".md": true, ".csv": true,
	}
)

// DetectFileType classifies a file by its extension.
// Returns ErrUnsupportedType for extensions no converter handles.
func DetectFileType(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case audioExtensions[ext]:
		return TypeAudio, nil
	case videoExtensions[ext]:
		return TypeVideo, nil
	case pdfExtensions[ext]:
		return TypePDF, nil
	case presentationExtensions[ext]:
		return TypePresentation, nil
	case wordExtensions[ext]:
		return TypeWord, nil
	case spreadsheetExtensions[ext]:
		return TypeSpreadsheet, nil
	case codeExtensions[ext]:
		return TypeCode, nil
	case imageExtensions[ext]:
		return TypeImage, nil
	case textExtensions[ext]:
		return TypeText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

// IsSupported reports whether a file name has a convertible extension.
func IsSupported(name string) bool {
	_, err := DetectFileType(name)
	return err == nil
}

// SupportedExtensions returns the full extension list grouped by type class.
func SupportedExtensions() map[string][]string {
	groups := map[string]map[string]bool{
		TypeAudio:        audioExtensions,
		TypeVideo:        videoExtensions,
		TypePDF:          pdfExtensions,
		TypePresentation: presentationExtensions,
		TypeWord:         wordExtensions,
		TypeSpreadsheet:  spreadsheetExtensions,
		TypeCode:         codeExtensions,
		TypeImage:        imageExtensions,
		TypeText:         textExtensions,
	}

	out := make(map[string][]string, len(groups))
	for class, exts := range groups {
		list := make([]string, 0, len(exts))
		for ext := range exts {
			list = append(list, ext)
		}
		out[class] = list
	}
	return out
}
