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

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/tutorstack/corpus/client"
)

func main() {
	app := &cli.App{
		Name:  "corpusctl",
		Usage: "Upload and manage tutoring documents on a corpus server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Base URL of the corpus server",
				Value:   "http://localhost:8080",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload one or more files for ingestion",
				ArgsUsage: "FILE [FILE...]",
				Action:    uploadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "module",
						Aliases: []string{"m"},
						Usage:   "Module code to tag chunks with",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum upload attempts per file",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 2 * time.Second,
					},
				},
			},
			{
				Name:      "verify",
				Usage:     "Check that a document's vectors are fully persisted",
				ArgsUsage: "DOCUMENT_ID",
				Action:    verifyCommand,
			},
			{
				Name:   "documents",
				Usage:  "List all documents on the server",
				Action: documentsCommand,
			},
			{
				Name:      "chunks",
				Usage:     "Show a document's chunks",
				ArgsUsage: "DOCUMENT_ID",
				Action:    chunksCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of chunks to fetch",
						Value: 100,
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and all of its vectors",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(c *cli.Context) *client.Client {
	return client.New(c.String("server"),
		client.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")))
}

func ingestBar(filename string) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription(color.CyanString(filename)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func uploadCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	cl := newClient(c)
	ctx := context.Background()

	succeeded := 0
	warned := 0
	failed := 0

	for _, path := range c.Args().Slice() {
		bar := ingestBar(filepath.Base(path))

		result, err := cl.Upload(ctx, client.UploadOptions{
			FilePath:   path,
			ModuleCode: c.String("module"),
			OnProgress: func(p client.Progress) {
				bar.Set(p.Progress)
			},
		})
		bar.Finish()
		fmt.Println()

		if err != nil {
			failed++
			color.Red("✗ %s: %v", path, err)
			continue
		}

		if result.Warning != "" {
			warned++
			color.Yellow("⚠ %s: %d chunks (document %s): %s",
				path, result.Chunks, result.DocumentID, result.Warning)
		} else {
			succeeded++
			color.Green("✓ %s: %d chunks, %d characters (document %s)",
				path, result.Chunks, result.TextLength, result.DocumentID)
		}
	}

	fmt.Println()
	color.Cyan("Uploaded %d file(s): %d ok, %d with warnings, %d failed",
		c.NArg(), succeeded, warned, failed)

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func verifyCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document id is required")
	}

	result, err := newClient(c).Verify(context.Background(), c.Args().First())
	if err != nil {
		return err
	}

	switch {
	case result.Complete:
		color.Green("✓ %s: %d/%d chunks stored", result.DocumentID, result.Count, result.Expected)
	case result.Stored:
		color.Yellow("⚠ %s: %d chunks stored, expected %d", result.DocumentID, result.Count, result.Expected)
	default:
		color.Red("✗ %s: no chunks stored", result.DocumentID)
	}
	return nil
}

func documentsCommand(c *cli.Context) error {
	docs, err := newClient(c).Documents(context.Background())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}

	for _, doc := range docs {
		line := fmt.Sprintf("%-36s  %-10s  %-8s  %5d chunks  %s",
			doc.ID, doc.Stage, doc.FileType, doc.ChunkCount, doc.SourceName)
		switch doc.Stage {
		case "COMPLETE":
			color.Green("%s", line)
		case "COMPLETE_WITH_WARNING":
			color.Yellow("%s", line)
		case "ERROR":
			color.Red("%s  (%s)", line, doc.Error)
		default:
			fmt.Println(line)
		}
	}
	return nil
}

func chunksCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document id is required")
	}

	chunks, err := newClient(c).Chunks(context.Background(), c.Args().First(), c.Int("limit"))
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		color.Cyan("--- chunk %d (%s, %d tokens) ---", chunk.Index, chunk.ID, chunk.TokenCount)
		fmt.Println(chunk.Text)
	}
	fmt.Printf("\n%d chunk(s)\n", len(chunks))
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document id is required")
	}

	id := c.Args().First()
	removed, err := newClient(c).Delete(context.Background(), id)
	if err != nil {
		return err
	}

	color.Green("✓ deleted %s (%d chunks removed)", id, removed)
	return nil
}
