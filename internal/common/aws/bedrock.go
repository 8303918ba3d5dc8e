// internal/common/aws/bedrock.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"sector-insights/internal/common/validation"
)

const anthropicVersion = "bedrock-2023-05-31"

// messagesResponseSchema accepts any Anthropic messages response whose first
// content block carries text.
const messagesResponseSchema = `{
  "type": "object",
  "required": ["content"],
  "properties": {
    "content": {
      "type": "array",
      "minItems": 1,
      "items": [
        {
          "type": "object",
          "required": ["text"],
          "properties": {"text": {"type": "string"}}
        }
      ]
    }
  }
}`

// InvokeModelAPI is the subset of *bedrockruntime.Client the service uses.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type BedrockClient struct {
	client InvokeModelAPI
}

func NewBedrockClient(ctx context.Context, region string) (*BedrockClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &BedrockClient{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

// NewBedrockClientWithAPI is used in tests to inject fakes.
func NewBedrockClientWithAPI(api InvokeModelAPI) *BedrockClient {
	return &BedrockClient{client: api}
}

type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends prompt as a single user turn and returns the first text
// block verbatim. No retries are attempted.
func (b *BedrockClient) Generate(ctx context.Context, modelID, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(messagesRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Messages:         []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     awssdk.String(modelID),
		ContentType: awssdk.String("application/json"),
		Accept:      awssdk.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke model %s: %w", modelID, err)
	}

	if err := validation.Check(messagesResponseSchema, out.Body); err != nil {
		return "", fmt.Errorf("unexpected response from %s: %w", modelID, err)
	}

	var resp messagesResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return resp.Content[0].Text, nil
}
