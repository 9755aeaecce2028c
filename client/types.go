package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// VerifyResult mirrors the server's verification response.
type VerifyResult struct {
	DocumentID string `json:"document_id"`
	Stored     bool   `json:"vectorsStored"`
	Count      int    `json:"vectorCount"`
	Status     string `json:"status"`
	Expected   int    `json:"expected"`
	Complete   bool   `json:"complete"`
}

// Document mirrors the server's document listing record.
type Document struct {
	ID         string    `json:"id"`
	SourceName string    `json:"source_name"`
	FileType   string    `json:"file_type"`
	SizeBytes  int64     `json:"size_bytes"`
	Stage      string    `json:"stage"`
	ChunkCount int       `json:"chunk_count"`
	TextLength int       `json:"text_length"`
	Warning    string    `json:"warning"`
	Error      string    `json:"error"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Chunk mirrors the server's chunk listing record.
type Chunk struct {
	ID         string            `json:"id"`
	Index      int               `json:"index"`
	Text       string            `json:"text"`
	TokenCount int               `json:"token_count"`
	Metadata   map[string]string `json:"metadata"`
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
