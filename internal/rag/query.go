package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"legal-ai/internal/apperr"
	"legal-ai/internal/db"
	"legal-ai/internal/llmservice"
	"legal-ai/internal/models"
)

type Answer struct {
	Text           string
	Sources        []models.Source
	ConversationID int64
}

// Answer runs the question pipeline for userID. With a conversation id the
// recent messages of that conversation are used as short-term memory;
// without one a new conversation is created with the exchange.
func (r *RAG) Answer(ctx context.Context, userID int64, question string, conversationID *int64) (*Answer, error) {
	logger := log.Ctx(ctx)
	if strings.TrimSpace(question) == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, msgEmptyQuestion)
	}

	gen := r.Index.Generation()
	n, err := r.Index.Count(ctx)
	if isDimensionMismatch(err) {
		if rerr := r.resetIndex(ctx, gen, err); rerr != nil {
			return nil, apperr.Internal(msgIndexLoadFailed, rerr)
		}
		return nil, apperr.Wrap(apperr.ErrInvalidState, msgIndexReset, err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, msgIndexLoadFailed, err)
	}
	if n == 0 {
		return nil, apperr.New(apperr.ErrNotFound, msgNothingIndexed)
	}

	var conv *db.Conversation
	var history []llms.MessageContent
	if conversationID != nil {
		conv, history, err = r.loadConversation(ctx, userID, *conversationID)
		if err != nil {
			return nil, err
		}
	}

	searchQuery, err := r.reformulate(ctx, question, history)
	if err != nil {
		return nil, apperr.Internal(msgAnswerFailed, err)
	}

	vector, err := r.Embedder.EmbedQuery(ctx, searchQuery)
	if err != nil {
		return nil, apperr.Internal(msgAnswerFailed, err)
	}
	gen = r.Index.Generation()
	hits, err := r.Index.Search(ctx, vector, r.opts.TopK)
	if isDimensionMismatch(err) {
		if rerr := r.resetIndex(ctx, gen, err); rerr != nil {
			return nil, apperr.Internal(msgIndexLoadFailed, rerr)
		}
		return nil, apperr.Wrap(apperr.ErrInvalidState, msgCompatibilityReset, err)
	}
	if err != nil {
		return nil, apperr.Internal(msgAnswerFailed, err)
	}

	text, err := r.generate(ctx, question, BuildContext(hits), history)
	if err != nil {
		return nil, apperr.Internal(msgAnswerFailed, err)
	}

	if conv == nil {
		conv = &db.Conversation{Title: Title(question), UserID: userID}
	}
	if err := r.Conversations.SaveExchange(ctx, conv, question, text); err != nil {
		return nil, apperr.Internal(msgAnswerFailed, err)
	}

	sources := make([]models.Source, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, h.Source)
	}
	logger.Info().Int64("conversation_id", conv.ID).Int("num_docs", len(hits)).Msg("Question answered")
	return &Answer{Text: text, Sources: sources, ConversationID: conv.ID}, nil
}

func (r *RAG) loadConversation(ctx context.Context, userID, id int64) (*db.Conversation, []llms.MessageContent, error) {
	conv, err := r.Conversations.GetConversation(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, apperr.New(apperr.ErrNotFound, msgConversationNotFound)
	}
	if err != nil {
		return nil, nil, apperr.Internal(msgAnswerFailed, err)
	}
	if conv.UserID != userID {
		return nil, nil, apperr.New(apperr.ErrForbidden, msgConversationDenied)
	}
	msgs, err := r.Conversations.RecentMessages(ctx, conv.ID, r.opts.HistoryLimit)
	if err != nil {
		return nil, nil, apperr.Internal(msgAnswerFailed, err)
	}
	return conv, HistoryMessages(msgs), nil
}

// HistoryMessages maps stored messages to chat turns, keeping their order.
func HistoryMessages(msgs []db.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		role := llms.ChatMessageTypeAI
		if m.Sender == models.SenderUser {
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

// reformulate rewrites a follow-up into a standalone question. Without
// history the question is used verbatim.
func (r *RAG) reformulate(ctx context.Context, question string, history []llms.MessageContent) (string, error) {
	if len(history) == 0 {
		return question, nil
	}
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, models.ReformulatePrompt))
	messages = append(messages, history...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	rewritten, err := llmservice.GenerateContent(ctx, r.LLM, messages, llms.WithTemperature(r.opts.Temperature))
	if err != nil {
		return "", fmt.Errorf("reformulate question: %w", err)
	}
	if rewritten == "" {
		return question, nil
	}
	log.Ctx(ctx).Info().Str("original", question).Str("reformulated", rewritten).Msg("Question reformulated")
	return rewritten, nil
}

func (r *RAG) generate(ctx context.Context, question, contextBlock string, history []llms.MessageContent) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, models.AnswerPrompt))
	messages = append(messages, history...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman,
		fmt.Sprintf(models.UserTurnTemplate, contextBlock, question)))

	text, err := llmservice.GenerateContent(ctx, r.LLM, messages, llms.WithTemperature(r.opts.Temperature))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return text, nil
}

// BuildContext renders the retrieved chunks in rank order.
func BuildContext(hits []models.RetrievedChunk) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		source := h.Source.Source
		if source == "" {
			source = "N/A"
		}
		parts = append(parts, fmt.Sprintf(models.ContextBlockTemplate, source, h.Content))
	}
	return strings.Join(parts, models.ContextSeparator)
}

// Title is the first characters of the opening question.
func Title(question string) string {
	runes := []rune(question)
	if len(runes) > models.TitleMaxRunes {
		runes = runes[:models.TitleMaxRunes]
	}
	return string(runes)
}
