package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"doctrans/internal/logger"
	"doctrans/internal/placeholder"
)

// BatchSeparator delimits the texts of one batch inside a single model call.
// The model is instructed to echo it verbatim between translated texts.
const BatchSeparator = "\n---SEGMENT_SEPARATOR---\n"

// BatchOutput is the result of one external translation call: the translated
// texts in input order plus the token counters the cost model consumes.
type BatchOutput struct {
	Texts     []string
	TokensIn  int
	TokensOut int
}

// Translator is the external translation capability. Implementations must
// preserve input ordering in their output and return *ServiceError for
// classifiable failures.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, targetLang, glossaryContext string) (*BatchOutput, error)
}

// EinoTranslatorConfig configures the chat-model-backed translator.
type EinoTranslatorConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	SourceLang string
}

// EinoTranslator implements Translator on top of an OpenAI-compatible chat
// model driven through the eino framework.
type EinoTranslator struct {
	chatModel  *openai.ChatModel
	model      string
	sourceLang string
}

// NewEinoTranslator constructs the chat model and wraps it as a Translator.
func NewEinoTranslator(ctx context.Context, cfg EinoTranslatorConfig) (*EinoTranslator, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = "gpt-4o"
	}

	chatModelConfig := &openai.ChatModelConfig{
		Model:  modelName,
		APIKey: cfg.APIKey,
	}
	if cfg.BaseURL != "" {
		chatModelConfig.BaseURL = cfg.BaseURL
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		return nil, NewServiceError(ErrBadRequest, "failed to create chat model", err)
	}

	return &EinoTranslator{
		chatModel:  chatModel,
		model:      modelName,
		sourceLang: cfg.SourceLang,
	}, nil
}

// TranslateBatch joins the texts with the batch separator, performs one model
// call and splits the response back into per-text translations, repairing
// separator drift when the model under- or over-splits.
func (t *EinoTranslator) TranslateBatch(ctx context.Context, texts []string, targetLang, glossaryContext string) (*BatchOutput, error) {
	if len(texts) == 0 {
		return &BatchOutput{}, nil
	}

	batchText := strings.Join(texts, BatchSeparator)

	logger.Debug("calling translation model",
		logger.String("model", t.model),
		logger.String("targetLang", targetLang),
		logger.Int("texts", len(texts)),
		logger.Int("chars", len(batchText)))

	response, err := t.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(t.buildSystemPrompt(targetLang, glossaryContext)),
		schema.UserMessage(t.buildUserPrompt(batchText)),
	})
	if err != nil {
		return nil, classifyModelError(err)
	}

	out := &BatchOutput{
		Texts: splitTranslatedBatch(response.Content, len(texts)),
	}
	if response.ResponseMeta != nil && response.ResponseMeta.Usage != nil {
		out.TokensIn = response.ResponseMeta.Usage.PromptTokens
		out.TokensOut = response.ResponseMeta.Usage.CompletionTokens
	}
	return out, nil
}

func (t *EinoTranslator) buildSystemPrompt(targetLang, glossaryContext string) string {
	src := t.sourceLang
	if src == "" {
		src = "the source language"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a professional translator for technical documents.
Translate from %s to %s.

CRITICAL RULES:
1. Translate accurately and naturally for the target language.
2. Tokens of the form <<<NAME>>> are protected placeholders. Copy every one of them to your output exactly as written, in the position where its content belongs. Never translate, alter or drop them.
3. Preserve every line break of the input: the output of each text must contain exactly the same number of newline characters as its input.
4. The input may contain multiple texts separated by "%s". Translate each text independently and echo the separators verbatim between them. Never merge texts or remove separators.
5. Output only the translated texts. No explanations or notes.`,
		src, targetLang, strings.TrimSpace(BatchSeparator))

	if glossaryContext != "" {
		sb.WriteString("\n\nTERMINOLOGY:\n")
		sb.WriteString(glossaryContext)
	}
	return sb.String()
}

func (t *EinoTranslator) buildUserPrompt(batchText string) string {
	return batchText
}

// splitTranslatedBatch splits a model response by the batch separator and
// forces the part count to the expected one: missing parts are padded with
// empty strings, excess parts are folded back into the final slot (the model
// occasionally echoes a separator inside a translation).
func splitTranslatedBatch(translated string, expected int) []string {
	parts := strings.Split(translated, BatchSeparator)

	// Trim spaces only; newlines are a layout signal the caller validates.
	for i := range parts {
		parts[i] = placeholder.TrimSpacesOnly(parts[i])
	}

	switch {
	case len(parts) == expected:
		return parts
	case len(parts) < expected:
		logger.Warn("model response under-split",
			logger.Int("expected", expected),
			logger.Int("received", len(parts)))
		for len(parts) < expected {
			parts = append(parts, "")
		}
		return parts
	default:
		logger.Warn("model response over-split",
			logger.Int("expected", expected),
			logger.Int("received", len(parts)))
		merged := make([]string, expected)
		copy(merged, parts[:expected-1])
		merged[expected-1] = strings.Join(parts[expected-1:], BatchSeparator)
		return merged
	}
}

// classifyModelError maps a raw model-call error onto the service error
// taxonomy so the retry policy can act on it.
func classifyModelError(err error) *ServiceError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests"):
		return NewServiceError(ErrRateLimited, "rate limit exceeded", err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "connection reset"):
		return NewServiceError(ErrTimeout, "call timed out", err)
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401") ||
		strings.Contains(msg, "invalid api key") || strings.Contains(msg, "authentication"):
		return NewServiceError(ErrAuth, "authentication failed", err)
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid request") ||
		strings.Contains(msg, "bad request"):
		return NewServiceError(ErrBadRequest, "invalid request", err)
	default:
		return NewServiceError(ErrService, "translation service error", err)
	}
}
