// Package assistant proxies chat and exam generation requests to the
// configured completion provider.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/academiax/internal/domain"
	"github.com/felixgeelhaar/academiax/internal/llm"
	"github.com/felixgeelhaar/academiax/internal/storage"
)

var (
	ErrMessageRequired = fmt.Errorf("message is required: %w", domain.ErrValidation)
	ErrTopicRequired   = fmt.Errorf("topic is required: %w", domain.ErrValidation)
)

// Completion parameters
const (
	chatTemperature     = 0.6
	chatMaxTokens       = 300
	questionTemperature = 0.4
	questionMaxTokens   = 1200
)

const questionSystemPrompt = `You are an exam generator. Return STRICT JSON:
{
  "mcq":[{"question":string,"options":[string,string,string,string],"correct":string}],
  "trueFalse":[{"question":string,"answer":boolean}],
  "short":[{"question":string,"answer":string}]
}`

// Service answers chat messages and generates question sets.
type Service struct {
	provider  llm.Provider
	classes   storage.Collection
	questions storage.Collection
	model     string
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(s *Service) { s.model = model }
}

// WithClock replaces time.Now for createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates an assistant over provider and the class and question
// collections of store.
func NewService(provider llm.Provider, store storage.Store, opts ...Option) *Service {
	s := &Service{
		provider:  provider,
		classes:   store.Collection(domain.CollectionClasses),
		questions: store.Collection(domain.CollectionQuestions),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the name of the completion provider in use.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// Chat answers a visitor message. The system prompt describes the site and
// lists the current class names.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrMessageRequired
	}

	system, err := s.chatSystemPrompt(ctx)
	if err != nil {
		return "", err
	}

	resp, err := s.provider.Generate(ctx, &llm.Request{
		Model:       s.model,
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: message}},
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return "", upstream("chat completion", err)
	}

	s.logger.Debug("chat answered",
		"provider", s.provider.Name(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)
	return resp.Content, nil
}

func (s *Service) chatSystemPrompt(ctx context.Context) (string, error) {
	classes, err := s.classes.Find(ctx, storage.Filter{})
	if err != nil {
		return "", upstream("list classes", err)
	}

	names := make([]string, 0, len(classes))
	for _, c := range classes {
		if name, ok := c[domain.FieldName].(string); ok && name != "" {
			names = append(names, name)
		}
	}

	var b strings.Builder
	b.WriteString("You are a helpful AI assistant for AcademiaX.\n")
	b.WriteString("Website features:\n")
	b.WriteString("- Users: register/login\n")
	b.WriteString("- Classes: " + strings.Join(names, ", ") + "\n")
	b.WriteString("- Budget management\n")
	b.WriteString("- Study planner\n")
	b.WriteString("- AI question generator\n")
	b.WriteString("Always answer questions about the website politely and helpfully.")
	return b.String(), nil
}

// Generated is a stored question set.
type Generated struct {
	ID        string
	Topic     string
	Questions *domain.QuestionSet
	CreatedAt time.Time
}

// GenerateQuestions asks the provider for a strict JSON exam on topic,
// validates it and stores {topic, questions, createdAt}.
func (s *Service) GenerateQuestions(ctx context.Context, topic string) (*Generated, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrTopicRequired
	}

	resp, err := s.provider.Generate(ctx, &llm.Request{
		Model:  s.model,
		System: questionSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Generate 5 MCQs, 5 True/False, 5 Short Answer for Topic: %q", topic),
		}},
		Temperature: questionTemperature,
		MaxTokens:   questionMaxTokens,
		Format:      llm.FormatJSON,
	})
	if err != nil {
		return nil, upstream("question completion", err)
	}

	set, err := domain.ParseQuestionSet(resp.Content)
	if err != nil {
		return nil, upstream("question completion", err)
	}

	created := s.now().UTC()
	id, err := s.questions.InsertOne(ctx, storage.Document{
		domain.FieldTopic:     topic,
		domain.FieldQuestions: set.Document(),
		domain.FieldCreatedAt: created,
	})
	if err != nil {
		return nil, upstream("store questions", err)
	}

	s.logger.Info("questions generated",
		"topic", topic,
		"id", id,
		"count", set.Len(),
		"provider", s.provider.Name())

	return &Generated{ID: id, Topic: topic, Questions: set, CreatedAt: created}, nil
}

// History returns stored question sets, optionally restricted to one topic.
func (s *Service) History(ctx context.Context, topic string) ([]storage.Document, error) {
	filter := storage.Filter{}
	if topic != "" {
		filter[domain.FieldTopic] = topic
	}
	docs, err := s.questions.Find(ctx, filter)
	if err != nil {
		return nil, upstream("list questions", err)
	}
	return docs, nil
}

func upstream(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
}
