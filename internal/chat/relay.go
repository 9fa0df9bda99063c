package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"chatkeep/internal/config"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// ErrEmptyCompletion indicates the upstream stream finished without
// producing any content.
var ErrEmptyCompletion = errors.New("empty completion from upstream")

// Relay forwards a single query to the completion API and drains the
// streamed reply into one string. The model handle is built once at
// startup and shared by every request.
type Relay struct {
	model model.BaseChatModel
	log   *zap.Logger
}

// NewRelay builds the completion client from config.
func NewRelay(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Relay, error) {
	if log == nil {
		log = zap.NewNop()
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		APIKey:  cfg.OpenAIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return &Relay{model: chatModel, log: log}, nil
}

// Converse sends the query as the sole user message and consumes the
// stream fully, concatenating every fragment in arrival order. It returns
// only after the stream ends; no timeout is imposed at this layer.
func (r *Relay) Converse(ctx context.Context, query string) (string, error) {
	streamReader, err := r.model.Stream(ctx, []*schema.Message{
		{Role: schema.User, Content: query},
	})
	if err != nil {
		return "", fmt.Errorf("open completion stream: %w", err)
	}
	defer streamReader.Close()

	var full strings.Builder
	for {
		chunk, err := streamReader.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("read completion stream: %w", err)
		}
		full.WriteString(chunk.Content)
	}

	if full.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	r.log.Debug("completion drained", zap.Int("chars", full.Len()))
	return full.String(), nil
}
