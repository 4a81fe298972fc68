package drafting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	appconfig "github.com/hostcampaign/site/internal/config"
	"github.com/hostcampaign/site/internal/pkg/logger"
)

// ModelInvoker is the subset of the Bedrock runtime client used here.
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockMessage represents a message in Bedrock format
type BedrockMessage struct {
	Role    string                `json:"role"`
	Content []BedrockContentBlock `json:"content"`
}

// BedrockContentBlock represents content in a message
type BedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// BedrockRequest is the Anthropic messages body sent to InvokeModel
type BedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []BedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

// BedrockResponse is the response from Bedrock
type BedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ErrBadModelOutput is returned when the model reply is not a usable letter.
var ErrBadModelOutput = errors.New("drafting: model output is not a letter")

// BedrockDrafter writes the letter with a Claude model on AWS Bedrock and
// falls back to another drafter when the model call or its output fails.
type BedrockDrafter struct {
	client    ModelInvoker
	modelID   string
	maxTokens int
	signOff   string
	fallback  Drafter
}

// NewBedrockDrafter creates a drafter around an existing client.
func NewBedrockDrafter(client ModelInvoker, cfg appconfig.DraftingConfig, fallback Drafter) *BedrockDrafter {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1200
	}
	return &BedrockDrafter{
		client:    client,
		modelID:   cfg.ModelID,
		maxTokens: maxTokens,
		signOff:   cfg.SignOff,
		fallback:  fallback,
	}
}

// NewBedrockDrafterFromConfig loads AWS credentials from the default chain.
func NewBedrockDrafterFromConfig(ctx context.Context, cfg appconfig.DraftingConfig, fallback Drafter) (*BedrockDrafter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Printf("BedrockDrafter: Initialized with model=%s, region=%s", cfg.ModelID, cfg.Region)
	return NewBedrockDrafter(bedrockruntime.NewFromConfig(awsCfg), cfg, fallback), nil
}

// Draft asks the model for a letter. Invalid requests fail without a call;
// any model failure is logged and served by the fallback when one is set.
func (b *BedrockDrafter) Draft(ctx context.Context, req Request) (Letter, error) {
	if err := req.Validate(); err != nil {
		return Letter{}, err
	}

	letter, err := b.invoke(ctx, req)
	if err == nil {
		return letter, nil
	}
	if b.fallback == nil {
		return Letter{}, err
	}
	logger.Warn("drafting: model failed, using template letter", "model", b.modelID, "error", err)
	return b.fallback.Draft(ctx, req)
}

func (b *BedrockDrafter) invoke(ctx context.Context, req Request) (Letter, error) {
	request := BedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        b.maxTokens,
		System:           b.systemPrompt(),
		Messages: []BedrockMessage{{
			Role:    "user",
			Content: []BedrockContentBlock{{Type: "text", Text: userPrompt(req)}},
		}},
		Temperature: 0.6,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return Letter{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return Letter{}, fmt.Errorf("Bedrock API error: %w", err)
	}

	var response BedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return Letter{}, fmt.Errorf("failed to parse response: %w", err)
	}

	var text strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}

	logger.Info("drafting: letter drafted",
		"model", b.modelID, "input_tokens", response.Usage.InputTokens, "output_tokens", response.Usage.OutputTokens)

	return parseLetter(text.String())
}

func (b *BedrockDrafter) systemPrompt() string {
	signOff := b.signOff
	if signOff == "" {
		signOff = "Yours sincerely,"
	}
	return `You write letters from UK constituents to their Member of Parliament about the impact of short-term holiday rentals on local housing and communities.

## Style
- Polite, personal and specific. Plain British English.
- Address the MP by name ("Dear <name>,"). Mention the constituency.
- Three to five short paragraphs. No headings, no markdown, no placeholders.
- Ask the MP one clear question about what they will do.
- If the constituent shared a personal story, use it in their own words and do not invent details.
- End with "` + signOff + `" followed by "A constituent in <constituency>".

## Output
Reply with a single JSON object and nothing else:
{"subject": "<under 80 characters>", "body": "<the letter, newlines as \n>"}`
}

func userPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MP: %s\n", strings.TrimSpace(req.MPName))
	fmt.Fprintf(&sb, "Constituency: %s\n", strings.TrimSpace(req.Constituency))
	sb.WriteString("Concerns:\n")
	for _, l := range labels(req.Issues) {
		fmt.Fprintf(&sb, "- %s\n", l)
	}
	if story := strings.TrimSpace(req.PersonalImpact); story != "" {
		fmt.Fprintf(&sb, "Personal impact, in the constituent's words:\n%s\n", story)
	}
	return sb.String()
}

// parseLetter extracts the JSON object from the model text, tolerating
// code fences or prose around it.
func parseLetter(text string) (Letter, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Letter{}, ErrBadModelOutput
	}
	var l Letter
	if err := json.Unmarshal([]byte(text[start:end+1]), &l); err != nil {
		return Letter{}, fmt.Errorf("%w: %v", ErrBadModelOutput, err)
	}
	l.Subject = strings.TrimSpace(l.Subject)
	l.Body = strings.TrimSpace(l.Body)
	if l.Subject == "" || l.Body == "" {
		return Letter{}, ErrBadModelOutput
	}
	return l, nil
}
