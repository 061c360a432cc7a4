package ws

import (
	"context"
	"errors"
	"strings"

	"github.com/nexushub/virtuallab/internal/assist"
)

// Debug analyzes an error for the requester only. The call runs off the read
// pump so code updates from the same connection keep flowing.
func (s *Service) Debug(ctx context.Context, client *Client, req DebugRequest) {
	if s.assistant == nil {
		client.SendEvent(MessageTypeDebugResponse, DebugResponseEvent{Error: "AI assistance is not available"})
		return
	}
	if strings.TrimSpace(req.ErrorMessage) == "" && strings.TrimSpace(req.CodeSnippet) == "" {
		client.SendEvent(MessageTypeDebugResponse, DebugResponseEvent{Error: "errorMessage or codeSnippet is required"})
		return
	}

	analyzeReq := assist.AnalyzeRequest{
		RequesterID:  req.UserID,
		ErrorMessage: req.ErrorMessage,
		CodeSnippet:  req.CodeSnippet,
		Language:     req.Language,
	}
	if room := s.registry.Get(req.SessionCode); room != nil {
		// only a bound participant counts against the session and authors its log
		if pid, ok := room.participantOf(client); ok {
			analyzeReq.SessionID = room.SessionID()
			analyzeReq.RequesterID = pid
		}
	}
	if analyzeReq.Language == "" {
		analyzeReq.Language = s.opts.DefaultLanguage
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		analysis := s.assistant.AnalyzeError(context.WithoutCancel(ctx), analyzeReq)
		client.SendEvent(MessageTypeDebugResponse, debugResponse(analysis))
	}()
}

// Suggest generates code for a description. It is not tied to any session.
func (s *Service) Suggest(ctx context.Context, client *Client, req SuggestionRequest) {
	if s.assistant == nil {
		client.SendEvent(MessageTypeCodeSuggestionResponse, SuggestionResponseEvent{Error: "AI assistance is not available"})
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		suggestion, err := s.assistant.SuggestCode(context.WithoutCancel(ctx), req.Description, req.Language)
		if err != nil {
			message := "Failed to generate code suggestion"
			if errors.Is(err, assist.ErrDescriptionRequired) {
				message = "description is required"
			}
			client.SendEvent(MessageTypeCodeSuggestionResponse, SuggestionResponseEvent{Error: message})
			return
		}
		client.SendEvent(MessageTypeCodeSuggestionResponse, SuggestionResponseEvent{Suggestion: suggestion})
	}()
}
