// Copyright 2026 Tutorstack Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package convert turns uploaded files into plain text for chunking.
//
// Supported inputs span PDFs, Office documents, plain text and source code,
// audio, video, and images. Each file class has its own extraction path:
//
//   - PDF: pdfcpu validation plus pdftotext extraction
//   - DOCX/PPTX/XLSX: direct OOXML parsing (archive/zip + encoding/xml)
//   - DOC/PPT/XLS: LibreOffice headless conversion to the modern format,
//     with a descriptive placeholder text when LibreOffice is unavailable
//   - Audio/Video: ffmpeg resampling followed by whisper-cli transcription
//   - Images: tesseract OCR
//   - Text/Code: direct read, code files get a small metadata header
//
// External tools run through the CommandRunner interface so tests can inject
// fakes and run without any of the tools installed.
package convert
