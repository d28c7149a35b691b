// Copyright 2025 Poiesic Systems
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


package main

import (
	"bufio"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/doctalk"
	"github.com/poiesic/doctalk/ai"
	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/ingest"
	"github.com/poiesic/doctalk/workflow"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "doctalk",
		Usage: "Question answering over your own documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Upload a document and wait for indexing",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags:     append(dataFlags(), aiFlags()...),
			},
			{
				Name:   "list",
				Usage:  "List uploaded documents and their status",
				Action: listCommand,
				Flags:  dataFlags(),
			},
			{
				Name:      "delete",
				Usage:     "Delete a document, its chunks, and its stored file",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
				Flags:     dataFlags(),
			},
			{
				Name:      "ask",
				Usage:     "Ask a single question over the indexed documents",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append(append(dataFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:  "document",
						Usage: "Restrict retrieval to one document ID",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of chunks to retrieve",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "stream",
						Usage: "Stream the answer token by token",
					},
				),
			},
			{
				Name:   "chat",
				Usage:  "Interactive question answering session",
				Action: chatCommand,
				Flags: append(append(dataFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:  "document",
						Usage: "Restrict retrieval to one document ID",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "Path to the data directory",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "chat-host",
			Usage: "Chat completion service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "text-embedding-3-small",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Primary chat model name",
			Value: "gpt-4o-mini",
		},
		&cli.StringFlag{
			Name:  "fallback-model",
			Usage: "Secondary chat model name",
			Value: "claude-haiku-4-5-20251001",
		},
	}
}

func openDatabase(c *cli.Context) (*doctalk.Database, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithChatHost(c.String("chat-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithFallbackModel(c.String("fallback-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []doctalk.DatabaseOption{doctalk.WithAIConfig(config)}
	if c.IsSet("top-k") {
		opts = append(opts, doctalk.WithRetrievalLimit(c.Int("top-k")))
	}

	db, err := doctalk.Open(c.String("data"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	events, cancel := db.Pipeline().Subscribe()
	defer cancel()

	doc, alreadyExists, err := db.Pipeline().Accept(c.Context, filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	if alreadyExists {
		fmt.Printf("Already uploaded: %s (%s, status %s)\n", doc.Title, doc.Id, doc.Status)
		if doc.Status != core.StatusFailed {
			return nil
		}
		fmt.Println("Previous attempt failed, retrying ingestion...")
	}

	for {
		select {
		case event := <-events:
			if event.DocumentId != doc.Id {
				continue
			}
			if event.Kind == ingest.EventDocumentFailed {
				return fmt.Errorf("ingestion failed: %s", event.Message)
			}
			fmt.Printf("Indexed: %s (%s)\n", doc.Title, doc.Id)
			return nil
		case <-time.After(10 * time.Minute):
			return fmt.Errorf("timed out waiting for ingestion of %s", doc.Id)
		}
	}
}

func listCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	docs, err := db.DocumentRepository().ListDocuments(c.Context)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents uploaded.")
		return nil
	}

	for _, doc := range docs {
		line := fmt.Sprintf("%s  %-7s  %s", doc.Id, doc.Status, doc.Title)
		if doc.Status == core.StatusFailed && doc.ErrorMessage != "" {
			line += fmt.Sprintf("  (%s)", doc.ErrorMessage)
		}
		fmt.Println(line)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document ID argument")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	id := core.DocumentID(c.Args().First())
	if err := db.Pipeline().Delete(c.Context, id); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one question argument")
	}
	question := c.Args().First()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := &workflow.RunOptions{
		DocumentId: core.DocumentID(c.String("document")),
	}

	if c.Bool("stream") {
		_, err := db.Workflow().RunStream(c.Context, "cli", question, opts, func(token string) error {
			fmt.Print(token)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Println()
		return nil
	}

	state, err := db.Workflow().Run(c.Context, "cli", question, opts)
	if err != nil {
		return err
	}
	fmt.Println(state.Answer)
	return nil
}

func chatCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := &workflow.RunOptions{
		DocumentId: core.DocumentID(c.String("document")),
	}

	fmt.Println("Ask questions about your documents. Type 'exit' to leave.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		_, err := db.Workflow().RunStream(c.Context, "chat", question, opts, func(token string) error {
			fmt.Print(token)
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println()
	}
	return scanner.Err()
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
