package anthropic

import (
	"context"

	"github.com/parley-dev/parley/internal/generator"
)

// GenerateWithKey performs one generation attempt using the given API
// key.
func (b *Backend) GenerateWithKey(ctx context.Context, key string, req generator.Request) (*generator.Response, error) {
	params, err := buildParams(b.config, req)
	if err != nil {
		return nil, err
	}

	msg, err := b.clientFor(key).Messages.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}

	b.logger.Debug("generation call completed",
		"task", string(req.Task),
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
	)
	return extractResult(msg, req)
}
