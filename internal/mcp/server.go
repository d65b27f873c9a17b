package mcp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/academiax/internal/assistant"
	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/storage"
)

// Server exposes the student toolkit as MCP tools
type Server struct {
	mcpServer *server.Server
	store     storage.Store
	assistant *assistant.Service
}

// Config contains configuration for the MCP server
type Config struct {
	Store     storage.Store
	Assistant *assistant.Service
	Version   string
}

// NewServer creates a new MCP server
func NewServer(cfg Config) *Server {
	s := &Server{
		store:     cfg.Store,
		assistant: cfg.Assistant,
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "academiax",
		Version: version,
	}, server.WithInstructions(`
AcademiaX is a student toolkit: class schedules, study tasks, budgets and
an AI study assistant.

Available tools:
- academiax_list_tasks: List the study tasks of a student
- academiax_list_classes: List the classes of a student
- academiax_generate_questions: Generate and store an exam for a topic
- academiax_chat: Ask the study assistant a question
`))

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("academiax_list_tasks").
		Description("List the study tasks stored for a student email.").
		Handler(s.handleListTasks)

	s.mcpServer.Tool("academiax_list_classes").
		Description("List the classes stored for a student email.").
		Handler(s.handleListClasses)

	s.mcpServer.Tool("academiax_generate_questions").
		Description("Generate 5 multiple choice, 5 true/false and 5 short answer questions for a topic and store them.").
		Handler(s.handleGenerateQuestions)

	s.mcpServer.Tool("academiax_chat").
		Description("Ask the study assistant. It knows the names of all stored classes.").
		Handler(s.handleChat)
}

// Input/Output types for tools

type ListInput struct {
	Email string `json:"email" jsonschema:"description=Student email the records belong to"`
}

type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Completed bool   `json:"completed"`
	Fields    string `json:"fields,omitempty"`
}

type ListTasksOutput struct {
	Tasks   []Task `json:"tasks"`
	Summary string `json:"summary"`
}

type Class struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type ListClassesOutput struct {
	Classes []Class `json:"classes"`
}

type GenerateInput struct {
	Topic string `json:"topic" jsonschema:"description=Topic to generate exam questions for"`
}

type GenerateOutput struct {
	ID        string              `json:"id"`
	Topic     string              `json:"topic"`
	Questions *domain.QuestionSet `json:"questions"`
	Count     int                 `json:"count"`
}

type ChatInput struct {
	Message string `json:"message" jsonschema:"description=Question for the study assistant"`
}

type ChatOutput struct {
	Reply string `json:"reply"`
}

// Tool handlers

func (s *Server) handleListTasks(ctx context.Context, input ListInput) (ListTasksOutput, error) {
	docs, err := s.find(ctx, domain.CollectionTasks, input.Email)
	if err != nil {
		return ListTasksOutput{}, err
	}

	output := ListTasksOutput{Tasks: make([]Task, 0, len(docs))}
	done := 0
	for _, doc := range docs {
		task := Task{ID: doc.ID()}
		task.Title, _ = doc["title"].(string)
		task.Completed, _ = doc[domain.FieldCompleted].(bool)
		if task.Completed {
			done++
		}
		task.Fields = otherFields(doc, "title", domain.FieldCompleted)
		output.Tasks = append(output.Tasks, task)
	}
	output.Summary = fmt.Sprintf("%d tasks, %d completed", len(docs), done)

	return output, nil
}

func (s *Server) handleListClasses(ctx context.Context, input ListInput) (ListClassesOutput, error) {
	docs, err := s.find(ctx, domain.CollectionClasses, input.Email)
	if err != nil {
		return ListClassesOutput{}, err
	}

	output := ListClassesOutput{Classes: make([]Class, 0, len(docs))}
	for _, doc := range docs {
		class := Class{ID: doc.ID()}
		class.Name, _ = doc[domain.FieldName].(string)
		output.Classes = append(output.Classes, class)
	}
	return output, nil
}

func (s *Server) handleGenerateQuestions(ctx context.Context, input GenerateInput) (GenerateOutput, error) {
	if s.assistant == nil {
		return GenerateOutput{}, errors.New("study assistant not configured")
	}

	gen, err := s.assistant.GenerateQuestions(ctx, input.Topic)
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("generate questions: %w", err)
	}

	return GenerateOutput{
		ID:        gen.ID,
		Topic:     gen.Topic,
		Questions: gen.Questions,
		Count:     gen.Questions.Len(),
	}, nil
}

func (s *Server) handleChat(ctx context.Context, input ChatInput) (ChatOutput, error) {
	if s.assistant == nil {
		return ChatOutput{}, errors.New("study assistant not configured")
	}

	reply, err := s.assistant.Chat(ctx, input.Message)
	if err != nil {
		return ChatOutput{}, fmt.Errorf("chat: %w", err)
	}
	return ChatOutput{Reply: reply}, nil
}

// find lists a collection for one email. Listing without an email is refused
// so a tool call never dumps every student's records.
func (s *Server) find(ctx context.Context, collection, email string) ([]storage.Document, error) {
	if s.store == nil {
		return nil, errors.New("store not configured")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", domain.ErrValidation)
	}

	docs, err := s.store.Collection(collection).Find(ctx, storage.Filter{domain.FieldEmail: email})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

// otherFields renders the remaining user fields as "key=value" pairs.
func otherFields(doc storage.Document, skip ...string) string {
	var parts []string
	for key, value := range doc {
		switch key {
		case storage.IDField, domain.FieldEmail, domain.FieldCreatedAt:
			continue
		}
		if slices.Contains(skip, key) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	slices.Sort(parts)
	return strings.Join(parts, ", ")
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
