package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driving"
	"github.com/tessera-labs/tessera-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService is the query entry point: route, then dispatch.
type AnswerService struct {
	router     *RouterService
	dispatcher *DispatcherService

	// transcriber is optional; without it AnswerAudio is unavailable.
	transcriber driven.Transcriber
}

// NewAnswerService creates an answer service. transcriber may be nil.
func NewAnswerService(router *RouterService, dispatcher *DispatcherService, transcriber driven.Transcriber) (*AnswerService, error) {
	if router == nil {
		return nil, fmt.Errorf("%w: router is required", domain.ErrInvalidInput)
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("%w: dispatcher is required", domain.ErrInvalidInput)
	}
	return &AnswerService{
		router:      router,
		dispatcher:  dispatcher,
		transcriber: transcriber,
	}, nil
}

// Answer routes and answers a text query.
func (s *AnswerService) Answer(ctx context.Context, input string) (*domain.Answer, error) {
	decision, err := s.router.Route(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Dispatch(ctx, decision)
}

// AnswerAudio transcribes the audio and routes on the transcript.
func (s *AnswerService) AnswerAudio(ctx context.Context, audio []byte, format string) (*domain.Answer, error) {
	if s.transcriber == nil {
		return nil, fmt.Errorf("%w: no transcriber configured", domain.ErrInvalidInput)
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, format)
	if err != nil {
		return nil, fmt.Errorf("transcribing audio: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, domain.ErrNoTranscript
	}
	logger.Debug("transcript: %q", transcript)

	return s.Answer(ctx, transcript)
}
