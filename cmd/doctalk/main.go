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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/doctalk"
	"github.com/poiesic/doctalk/ingest"
)

func main() {
	app := &cli.App{
		Name:  "doctalk",
		Usage: "Chat with your documents using Docling and Ollama",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the state file and document database",
				Value:   "doctalk-data",
			},
			&cli.StringFlag{
				Name:  "docling-host",
				Usage: "Docling conversion service base URL",
				Value: "http://localhost:5001",
			},
			&cli.StringFlag{
				Name:  "ollama-host",
				Usage: "Ollama generation service base URL",
				Value: "http://localhost:11434",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Generation model name",
				Value: "llama3.1:8b-instruct-q4_K_M",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Convert and store a single file",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
			},
			{
				Name:      "ingest-dir",
				Usage:     "Convert and store every supported file in a directory",
				ArgsUsage: "<directory>",
				Action:    ingestDirCommand,
			},
			{
				Name:      "ask",
				Usage:     "Ask a question against the stored documents",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:   "docs",
				Usage:  "List stored documents",
				Action: docsCommand,
			},
			{
				Name:      "rm",
				Usage:     "Remove a stored document by id",
				ArgsUsage: "<document-id>",
				Action:    removeCommand,
			},
			{
				Name:   "conversations",
				Usage:  "List conversations",
				Action: conversationsCommand,
			},
			{
				Name:   "new",
				Usage:  "Start a new conversation",
				Action: newConversationCommand,
			},
			{
				Name:   "clear",
				Usage:  "Delete all documents and conversations",
				Action: clearCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openApp(c *cli.Context) (*doctalk.App, error) {
	return doctalk.NewApp(c.Context, &doctalk.Config{
		DataDir:     c.String("data-dir"),
		DoclingHost: c.String("docling-host"),
		OllamaHost:  c.String("ollama-host"),
		Model:       c.String("model"),
	})
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	printer := ingest.NewProgressPrinter(os.Stderr)
	record, err := app.IngestFile(c.Context, c.Args().First(), printer.Update)
	printer.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %s (%d characters) as %s\n",
		record.Filename, len(record.Content), record.Id)
	return nil
}

func ingestDirCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one directory argument")
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	printer := ingest.NewProgressPrinter(os.Stderr)
	report, err := app.IngestDir(c.Context, c.Args().First(), printer.UpdateBatch)
	printer.Finish()
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	for _, detail := range report.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", detail)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected a question")
	}
	question := strings.Join(c.Args().Slice(), " ")

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	answer, sources, err := app.Ask(c.Context, question)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	if len(sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, source := range sources {
			fmt.Printf("  %s (%.2f)\n", source.Document.Filename, source.Score)
		}
	}
	return nil
}

func docsCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	documents := app.Documents()
	if len(documents) == 0 {
		fmt.Println("No documents stored.")
		return nil
	}
	for _, record := range documents {
		fmt.Printf("%s  %s  %d chars  %s\n",
			record.Id, record.Filename, len(record.Content),
			record.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func removeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document id")
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Remove(c.Context, c.Args().First()); err != nil {
		return err
	}
	fmt.Println("Removed.")
	return nil
}

func conversationsCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	conversations := app.Conversations()
	if len(conversations) == 0 {
		fmt.Println("No conversations.")
		return nil
	}
	for _, conversation := range conversations {
		fmt.Printf("%s  %s  %d messages\n",
			conversation.Id, conversation.Title, len(conversation.Messages))
	}
	return nil
}

func newConversationCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	conversation, err := app.NewConversation(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Started %s (%s)\n", conversation.Title, conversation.Id)
	return nil
}

func clearCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Clear(c.Context); err != nil {
		return err
	}
	fmt.Println("All documents and conversations deleted.")
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
