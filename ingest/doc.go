// Copyright 2026 Tutorstack Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ingest runs uploaded files through the full ingestion pipeline:
// conversion to text, chunking, batched embedding, and durable vector
// storage. Every upload is a state machine whose progress is streamed as
// events; a failure at any stage records the failing stage on the document
// and classifies the error for client retry decisions.
package ingest
