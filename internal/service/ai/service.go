package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/wangyuhao/assistant/internal/config"
	"github.com/wangyuhao/assistant/internal/model/chat"
)

// Service is the model gateway: it turns a transcript into a stream of
// reply fragments. It holds no conversation state between calls.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the chat chain against the configured model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// Stream sends the conversation to the model and returns the reply as a
// fragment stream. With streaming disabled in configuration the full reply
// arrives as a single fragment. Errors are already classified.
func (s *Service) Stream(ctx context.Context, system string, history []chat.Message, query string) (*schema.StreamReader[*schema.Message], error) {
	input := s.buildChainInput(system, history, query)

	if !s.cfg.StreamResponse {
		response, err := s.chain.Invoke(ctx, input)
		if err != nil {
			return nil, Classify(fmt.Errorf("failed to run chat chain: %w", err))
		}
		return schema.StreamReaderFromArray([]*schema.Message{response}), nil
	}

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, Classify(fmt.Errorf("failed to stream chat chain output: %w", err))
	}

	log.Printf("[ai] streaming reply, model=%s history=%d", s.cfg.Model, len(history))
	return stream, nil
}

func (s *Service) buildChainInput(system string, history []chat.Message, query string) map[string]any {
	if system == "" {
		system = BuildSystemPrompt("")
	}
	return map[string]any{
		"system":  system,
		"history": buildHistoryMessages(history),
		"query":   query,
	}
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
