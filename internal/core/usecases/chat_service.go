package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/core/ports"
	"github.com/dishdash/dishdash/internal/pkg/metrics"
)

const (
	maxChatMessages   = 50
	chatContextRadius = 1500
	chatContextPlaces = 5
)

// ChatService forwards conversations to the external assistant.
type ChatService struct {
	assistant ports.AssistantClient
	places    *PlaceService
}

// NewChatService creates a new ChatService. places may be nil.
func NewChatService(assistant ports.AssistantClient, places *PlaceService) *ChatService {
	return &ChatService{assistant: assistant, places: places}
}

// Ask sends the conversation to the assistant. When near is set, a system
// message listing nearby places is prepended so answers can reference them.
func (s *ChatService) Ask(ctx context.Context, history []domain.ChatMessage, near *domain.GeoPoint) (*domain.ChatReply, error) {
	if err := validateHistory(history); err != nil {
		return nil, err
	}

	messages := history
	if near != nil && s.places != nil {
		places, err := s.places.FindNearby(ctx, *near, chatContextRadius, chatContextPlaces)
		if err != nil {
			slog.WarnContext(ctx, "chat context lookup failed", "error", err)
		} else if len(places) > 0 {
			messages = append([]domain.ChatMessage{nearbyContext(places)}, history...)
		}
	}

	reply, err := s.assistant.Complete(ctx, messages)
	if err != nil {
		metrics.AssistantRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: assistant: %v", domain.ErrUpstream, err)
	}
	metrics.AssistantRequests.WithLabelValues("ok").Inc()
	return reply, nil
}

func validateHistory(history []domain.ChatMessage) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: at least one message is required", domain.ErrInvalidInput)
	}
	if len(history) > maxChatMessages {
		return fmt.Errorf("%w: at most %d messages allowed", domain.ErrInvalidInput, maxChatMessages)
	}
	for i, m := range history {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return fmt.Errorf("%w: message %d has role %q", domain.ErrInvalidInput, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message %d is empty", domain.ErrInvalidInput, i)
		}
	}
	if history[len(history)-1].Role != domain.RoleUser {
		return fmt.Errorf("%w: last message must come from the user", domain.ErrInvalidInput)
	}
	return nil
}

func nearbyContext(places []domain.Place) domain.ChatMessage {
	var b strings.Builder
	b.WriteString("Places near the user:\n")
	for _, p := range places {
		fmt.Fprintf(&b, "- %s (%s", p.Name, p.Category)
		if p.Distance != nil {
			fmt.Fprintf(&b, ", %.0f m", *p.Distance)
		}
		if p.ReviewCount > 0 {
			fmt.Fprintf(&b, ", %.1f/5 from %d reviews", p.AvgSatisfaction, p.ReviewCount)
		}
		b.WriteString(")\n")
	}
	return domain.ChatMessage{Role: domain.RoleSystem, Content: b.String()}
}
