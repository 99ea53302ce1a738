// Copyright 2026 Crewlens Authors
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/crewlens/crewlens"
	"github.com/crewlens/crewlens/ai"
	"github.com/crewlens/crewlens/core"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "crewlens",
		Usage: "Ask questions about workforce spreadsheets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Base directory for indexes, snapshots and catalogs",
				Value:   defaultDataDir(),
			},
			&cli.StringFlag{
				Name:    "tenant",
				Aliases: []string{"t"},
				Usage:   "Tenant namespace (e.g. an email address)",
				Value:   "default",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				EnvVars: []string{"CREWLENS_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"CREWLENS_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "completion-host",
				Usage:   "Completion service host URL",
				EnvVars: []string{"CREWLENS_COMPLETION_HOST"},
			},
			&cli.StringFlag{
				Name:    "completion-model",
				Usage:   "Completion model name",
				EnvVars: []string{"CREWLENS_COMPLETION_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the completion service",
				EnvVars: []string{"CREWLENS_API_KEY"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Upload a CSV or spreadsheet into the knowledge base",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Rebuild the index even when identical content is already registered",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask one question against the active dataset",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:   "chat",
				Usage:  "Interactive question loop against the active dataset",
				Action: chatCommand,
			},
			{
				Name:   "list",
				Usage:  "List the tenant's registered datasets",
				Action: listCommand,
			},
			{
				Name:      "activate",
				Usage:     "Select which dataset questions run against",
				ArgsUsage: "<hash>",
				Action:    activateCommand,
			},
			{
				Name:      "remove",
				Usage:     "Delete one dataset's index, snapshot and catalog entry",
				ArgsUsage: "<hash>",
				Action:    removeCommand,
			},
			{
				Name:   "reset",
				Usage:  "Delete everything the tenant owns",
				Action: resetCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crewlens"
	}
	return filepath.Join(home, ".crewlens")
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

// openWorkspace assembles a workspace from the global flags. The
// caller owns the returned workspace and must Close it.
func openWorkspace(c *cli.Context) (*crewlens.Workspace, error) {
	var configOpts []ai.ConfigOption
	if host := c.String("embedding-host"); host != "" {
		configOpts = append(configOpts, ai.WithEmbeddingHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		configOpts = append(configOpts, ai.WithEmbeddingModel(model))
	}
	if host := c.String("completion-host"); host != "" {
		configOpts = append(configOpts, ai.WithCompletionHost(host))
	}
	if model := c.String("completion-model"); model != "" {
		configOpts = append(configOpts, ai.WithCompletionModel(model))
	}
	if key := c.String("api-key"); key != "" {
		configOpts = append(configOpts, ai.WithAPIKey(key))
	}

	config := ai.NewConfig(configOpts...)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return crewlens.NewWorkspace(c.String("data-dir"), crewlens.WithAIConfig(config))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: crewlens ingest <file>")
	}
	path := c.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	w, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx := context.Background()
	tenant := c.String("tenant")
	filename := filepath.Base(path)

	if c.Bool("force") {
		record, err := w.Rebuild(ctx, tenant, filename, data)
		if err != nil {
			return err
		}
		fmt.Printf("rebuilt %s (%s)\n", record.DisplayName, record.Hash)
		return nil
	}

	status, record, err := w.Upload(ctx, tenant, filename, data)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s (%s)\n", strings.ToLower(string(status)), record.DisplayName, record.Hash)
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: crewlens ask <question>")
	}
	question := strings.Join(c.Args().Slice(), " ")

	w, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer w.Close()

	answer, err := w.Ask(context.Background(), c.String("tenant"), question)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func chatCommand(c *cli.Context) error {
	w, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer w.Close()

	tenant := c.String("tenant")
	fmt.Println("Ask about your data. Type /clear to forget the conversation, /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit", line == "/exit":
			return nil
		case line == "/clear":
			w.ClearHistory(tenant)
			fmt.Println("conversation cleared")
			continue
		}

		answer, err := w.Ask(context.Background(), tenant, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
	return scanner.Err()
}

func listCommand(c *cli.Context) error {
	w, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer w.Close()

	records, err := w.Datasets(c.String("tenant"))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no datasets")
		return nil
	}
	for _, record := range records {
		fmt.Printf("%s  %s  %s\n",
			record.Hash, record.CreatedAt.Format("2006-01-02 15:04"), record.DisplayName)
	}
	return nil
}

func activateCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: crewlens activate <hash>")
	}

	w, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer w.Close()

	return w.Activate(c.String("tenant"), core.Hash(c.Args().First()))
}

func removeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: crewlens remove <hash>")
	}

	w, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer w.Close()

	result, err := w.RemoveDataset(context.Background(), c.String("tenant"), core.Hash(c.Args().First()))
	if err != nil {
		return err
	}
	if !result.Reclaimed() {
		fmt.Printf("dataset removed; storage parked at %s\n", result.RenamedTo)
		return nil
	}
	fmt.Println("dataset removed")
	return nil
}

func resetCommand(c *cli.Context) error {
	tenant := c.String("tenant")
	if !c.Bool("yes") {
		fmt.Printf("This deletes every dataset for tenant %q. Type 'yes' to continue: ", tenant)
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "yes" {
			fmt.Println("aborted")
			return nil
		}
	}

	w, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer w.Close()

	results, err := w.Reset(context.Background(), tenant)
	if err != nil {
		return err
	}
	reclaimed := 0
	for _, result := range results {
		if result.Reclaimed() {
			reclaimed++
		}
	}
	fmt.Printf("reset complete: %d torn down, %d reclaimed\n", len(results), reclaimed)
	return nil
}
