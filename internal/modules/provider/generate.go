package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

// generate is the batch path: one request, one response, no usage.
func (c *Claude) generate(ctx context.Context, prompt string) (*Result, error) {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(c.apiKey),
		anthropicoption.WithMaxRetries(0),
	}
	if c.endpoint != anthropicDefaultEndpoint {
		opts = append(opts, anthropicoption.WithBaseURL(c.endpoint))
	}

	client := anthropicclient.NewClient(opts...)
	model := jetanthropic.NewLanguageModel(c.model, jetanthropic.WithClient(client))

	text, err := generateText(ctx, model, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.name, err)
	}
	return &Result{Text: text, ModelID: c.model}, nil
}

func (o *OpenAI) generate(ctx context.Context, prompt string) (*Result, error) {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(o.apiKey),
		openaioption.WithMaxRetries(0),
	}
	if o.endpoint != openaiDefaultEndpoint {
		opts = append(opts, openaioption.WithBaseURL(strings.TrimRight(o.endpoint, "/")+"/v1"))
	}

	client := openaiclient.NewClient(opts...)
	model := jetopenai.NewLanguageModel(o.model, jetopenai.WithClient(client))

	text, err := generateText(ctx, model, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", o.name, err)
	}
	return &Result{Text: text, ModelID: o.model}, nil
}

func generateText(ctx context.Context, model jetapi.LanguageModel, prompt string) (string, error) {
	resp, err := jetai.GenerateText(
		ctx,
		[]jetapi.Message{&jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)}},
		jetai.WithModel(model),
		jetai.WithMaxOutputTokens(anthropicMaxTokens),
	)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("empty model response")
	}

	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}
