// Copyright 2025 Quorial Labs
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/quorial/grounddesk"
	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/reindex"
	"github.com/quorial/grounddesk/search"
)

func main() {
	app := &cli.App{
		Name:  "grounddesk",
		Usage: "Document-grounded project chat with capacity-aware ingestion",
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
				Name:  "project",
				Usage: "Manage projects",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create a new project",
						Action: projectCreateCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Project name",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "description",
								Usage: "Project description",
							},
							&cli.StringFlag{
								Name:  "system-prompt",
								Usage: "Custom system prompt for chat in this project",
							},
							&cli.IntFlag{
								Name:  "max-context-tokens",
								Usage: "Token budget for documents and conversations",
								Value: 100000,
							},
							&cli.StringFlag{
								Name:  "owner",
								Usage: "Owner user ID",
							},
						),
					},
					{
						Name:   "capacity",
						Usage:  "Show a project's token usage report",
						Action: projectCapacityCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:     "project",
								Aliases:  []string{"p"},
								Usage:    "Project ID",
								Required: true,
							},
						),
					},
				},
			},
			{
				Name:  "document",
				Usage: "Manage documents",
				Subcommands: []*cli.Command{
					{
						Name:      "upload",
						Usage:     "Upload a file into a project and process it",
						ArgsUsage: "<file>",
						Action:    documentUploadCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:     "project",
								Aliases:  []string{"p"},
								Usage:    "Project ID",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "type",
								Usage: "Document category (rfp, proposal, other)",
								Value: core.DocumentTypeOther,
							},
							&cli.BoolFlag{
								Name:  "wait",
								Usage: "Block until processing finishes",
							},
						),
					},
					{
						Name:   "status",
						Usage:  "Show processing status of a document",
						Action: documentStatusCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:     "id",
								Usage:    "Document ID",
								Required: true,
							},
						),
					},
					{
						Name:   "retry",
						Usage:  "Retry processing of a failed document",
						Action: documentRetryCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:     "id",
								Usage:    "Document ID",
								Required: true,
							},
							&cli.BoolFlag{
								Name:  "wait",
								Usage: "Block until processing finishes",
							},
						),
					},
					{
						Name:   "delete",
						Usage:  "Delete a document, its file, and its vectors",
						Action: documentDeleteCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:     "id",
								Usage:    "Document ID",
								Required: true,
							},
						),
					},
					{
						Name:   "reindex",
						Usage:  "Rebuild a project's vectors with the current embedding model",
						Action: documentReindexCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:     "project",
								Aliases:  []string{"p"},
								Usage:    "Project ID",
								Required: true,
							},
							&cli.IntFlag{
								Name:  "batch-size",
								Usage: "Number of documents to process in each batch",
								Value: reindex.DefaultBatchSize,
							},
							&cli.IntFlag{
								Name:  "report-interval",
								Usage: "Report progress every N documents",
								Value: 10,
							},
							&cli.IntFlag{
								Name:  "max-retries",
								Usage: "Maximum retry attempts for embedding calls",
								Value: 3,
							},
							&cli.DurationFlag{
								Name:  "retry-delay",
								Usage: "Base delay for exponential backoff",
								Value: 1 * time.Second,
							},
						),
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search a project's documents",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(deskFlags(),
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultMaxHits,
					},
				),
			},
			{
				Name:  "conversation",
				Usage: "Manage conversations",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Start a new conversation, optionally scoped to a project",
						Action: conversationCreateCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:    "project",
								Aliases: []string{"p"},
								Usage:   "Project ID (omit for a conversation without document retrieval)",
							},
							&cli.StringFlag{
								Name:  "title",
								Usage: "Conversation title (auto-generated when omitted)",
							},
							&cli.StringFlag{
								Name:  "user",
								Usage: "User ID",
							},
							&cli.BoolFlag{
								Name:  "no-documents",
								Usage: "Disable document retrieval for this conversation",
							},
						),
					},
					{
						Name:   "title",
						Usage:  "Generate a title for a conversation now",
						Action: conversationTitleCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:     "id",
								Usage:    "Conversation ID",
								Required: true,
							},
						),
					},
				},
			},
			{
				Name:  "chat",
				Usage: "Chat over project documents",
				Subcommands: []*cli.Command{
					{
						Name:      "send",
						Usage:     "Send a message and print the assistant reply",
						ArgsUsage: "<message>",
						Action:    chatSendCommand,
						Flags: append(deskFlags(),
							&cli.StringFlag{
								Name:     "conversation",
								Aliases:  []string{"c"},
								Usage:    "Conversation ID",
								Required: true,
							},
							&cli.BoolFlag{
								Name:  "no-documents",
								Usage: "Skip document retrieval for this message",
							},
						),
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// deskFlags returns the flags shared by every command that opens the
// desk. Each command gets its own copy because urfave/cli mutates flag
// state during parsing.
func deskFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   "grounddesk.db",
			EnvVars: []string{"GROUNDDESK_DB"},
		},
		&cli.StringFlag{
			Name:    "documents",
			Usage:   "Directory where uploaded files are kept",
			Value:   "documents",
			EnvVars: []string{"GROUNDDESK_DOCUMENTS"},
		},
		&cli.StringFlag{
			Name:    "vector-dsn",
			Usage:   "PostgreSQL connection string for the pgvector index",
			EnvVars: []string{"GROUNDDESK_VECTOR_DSN"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible API host for embeddings and chat",
			EnvVars: []string{"GROUNDDESK_HOST"},
		},
		&cli.StringFlag{
			Name:    "chat-model",
			Usage:   "Chat completion model name",
			EnvVars: []string{"GROUNDDESK_CHAT_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"GROUNDDESK_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the AI services",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Background worker pool size",
			Value: 4,
		},
	}
}

// openDesk builds a Desk from the shared flags.
func openDesk(ctx context.Context, c *cli.Context) (*grounddesk.Desk, error) {
	var configOpts []ai.ConfigOption
	if host := c.String("host"); host != "" {
		configOpts = append(configOpts, ai.WithHost(host))
	}
	if model := c.String("chat-model"); model != "" {
		configOpts = append(configOpts, ai.WithChatModel(model))
	}
	if model := c.String("embedding-model"); model != "" {
		configOpts = append(configOpts, ai.WithEmbeddingModel(model))
	}
	if key := c.String("api-key"); key != "" {
		configOpts = append(configOpts, ai.WithAPIKey(key))
	}

	desk, err := grounddesk.NewDesk(ctx, c.String("db"), c.String("documents"),
		grounddesk.WithAIConfig(ai.NewConfig(configOpts...)),
		grounddesk.WithVectorDSN(c.String("vector-dsn")),
		grounddesk.WithWorkers(c.Int("workers")))
	if err != nil {
		return nil, fmt.Errorf("failed to open desk: %w", err)
	}
	return desk, nil
}

func parseID(c *cli.Context, flag string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.String(flag))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID %q: %w", flag, c.String(flag), err)
	}
	return id, nil
}

func projectCreateCommand(c *cli.Context) error {
	ctx := context.Background()

	project := &core.Project{
		ID:               uuid.New(),
		Name:             c.String("name"),
		Description:      c.String("description"),
		SystemPrompt:     c.String("system-prompt"),
		MaxContextTokens: c.Int("max-context-tokens"),
	}
	if owner := c.String("owner"); owner != "" {
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			return fmt.Errorf("invalid owner ID %q: %w", owner, err)
		}
		project.OwnerID = ownerID
	}
	if err := core.ValidateProject(project); err != nil {
		return err
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	if err := desk.Store().CreateProject(ctx, project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	fmt.Println(project.ID)
	return nil
}

func projectCapacityCommand(c *cli.Context) error {
	ctx := context.Background()

	projectID, err := parseID(c, "project")
	if err != nil {
		return err
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	report, err := desk.Tracker().Report(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to build capacity report: %w", err)
	}

	fmt.Printf("Project:             %s\n", report.ProjectID)
	fmt.Printf("Max tokens:          %d\n", report.MaxTokens)
	fmt.Printf("Document tokens:     %d\n", report.DocumentTokens)
	fmt.Printf("Conversation tokens: %d\n", report.ConversationTokens)
	fmt.Printf("Used tokens:         %d (%.1f%%)\n", report.UsedTokens, report.UsedPercent)
	fmt.Printf("Remaining tokens:    %d\n", report.RemainingTokens)
	if report.OverLimit {
		fmt.Println("Status:              over limit")
	} else if report.NearLimit {
		fmt.Println("Status:              near limit")
	} else {
		fmt.Println("Status:              ok")
	}
	return nil
}

func documentUploadCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	projectID, err := parseID(c, "project")
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	document, admission, err := desk.Pipeline().Admit(ctx, projectID,
		filepath.Base(path), c.String("type"), file)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	if !admission.Allowed {
		return fmt.Errorf("upload rejected: %s", admission.Reason)
	}

	fmt.Fprintf(os.Stderr, "Uploaded %s as document %s\n", document.Filename, document.ID)

	if c.Bool("wait") {
		desk.Drain()
		return printProgress(ctx, desk, document.ID)
	}
	return nil
}

func documentStatusCommand(c *cli.Context) error {
	ctx := context.Background()

	documentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	return printProgress(ctx, desk, documentID)
}

func printProgress(ctx context.Context, desk *grounddesk.Desk, documentID uuid.UUID) error {
	progress, err := desk.Pipeline().Progress(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to read document status: %w", err)
	}

	fmt.Printf("Document: %s\n", progress.DocumentID)
	fmt.Printf("Status:   %s\n", progress.Status)
	fmt.Printf("Chunks:   %d/%d (%.1f%%)\n",
		progress.ProcessedChunks, progress.ChunkCount, progress.Percent)
	if progress.ErrorMessage != "" {
		fmt.Printf("Error:    %s\n", progress.ErrorMessage)
	}
	return nil
}

func documentRetryCommand(c *cli.Context) error {
	ctx := context.Background()

	documentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	document, err := desk.Pipeline().Retry(ctx, documentID)
	if err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Requeued document %s\n", document.ID)

	if c.Bool("wait") {
		desk.Drain()
		return printProgress(ctx, desk, document.ID)
	}
	return nil
}

func documentDeleteCommand(c *cli.Context) error {
	ctx := context.Background()

	documentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	if err := desk.Pipeline().Remove(ctx, documentID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Deleted document %s\n", documentID)
	return nil
}

func documentReindexCommand(c *cli.Context) error {
	ctx := context.Background()

	projectID, err := parseID(c, "project")
	if err != nil {
		return err
	}

	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	reindexer, err := desk.Reindexer(config, os.Stderr)
	if err != nil {
		return err
	}

	if err := reindexer.Run(ctx, projectID); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}
	query := c.Args().First()

	projectID, err := parseID(c, "project")
	if err != nil {
		return err
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	matches, err := desk.Searcher().Search(ctx, projectID, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Fprintln(os.Stderr, "No matches")
		return nil
	}
	for _, match := range matches {
		meta := match.Result.Metadata
		page := ""
		if meta.PageNumber > 0 {
			page = fmt.Sprintf(", page %d/%d", meta.PageNumber, meta.PageTotal)
		}
		fmt.Printf("%.3f  %s%s\n", match.Score, meta.Filename, page)
		fmt.Printf("      %s\n", match.Result.Content)
	}
	return nil
}

func conversationCreateCommand(c *cli.Context) error {
	ctx := context.Background()

	conversation := &core.Conversation{
		ID:           uuid.New(),
		UserID:       core.NewID(),
		Title:        c.String("title"),
		UseDocuments: !c.Bool("no-documents"),
	}
	if c.String("project") != "" {
		projectID, err := parseID(c, "project")
		if err != nil {
			return err
		}
		conversation.ProjectID = projectID
	}
	if user := c.String("user"); user != "" {
		userID, err := uuid.Parse(user)
		if err != nil {
			return fmt.Errorf("invalid user ID %q: %w", user, err)
		}
		conversation.UserID = userID
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	if conversation.ProjectID != uuid.Nil {
		if _, err := desk.Store().GetProject(ctx, conversation.ProjectID); err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
	}
	if err := desk.Store().CreateConversation(ctx, conversation); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	fmt.Println(conversation.ID)
	return nil
}

func conversationTitleCommand(c *cli.Context) error {
	ctx := context.Background()

	conversationID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	if err := desk.Orchestrator().GenerateTitle(ctx, conversationID); err != nil {
		return fmt.Errorf("title generation failed: %w", err)
	}

	conversation, err := desk.Store().GetConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	fmt.Println(conversation.Title)
	return nil
}

func chatSendCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one message argument")
	}
	content := c.Args().First()

	conversationID, err := parseID(c, "conversation")
	if err != nil {
		return err
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	reply, err := desk.SendMessage(ctx, conversationID, content, !c.Bool("no-documents"))
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	fmt.Println(reply.Content)
	for _, reference := range reply.References {
		page := ""
		if reference.PageNumber > 0 {
			page = fmt.Sprintf(", page %d/%d", reference.PageNumber, reference.PageTotal)
		}
		fmt.Fprintf(os.Stderr, "  [%s] %s%s (distance %.3f)\n",
			reference.DocumentType, reference.Filename, page, reference.Distance)
	}

	// Let queued background work (title generation) finish before the
	// process exits.
	desk.Drain()
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
