package translator

import (
	"context"
	"errors"
	"time"
)

// ErrAutomationUnavailable is wrapped by services whose browser tooling
// cannot be started. Callers may answer from a fallback instead of failing.
var ErrAutomationUnavailable = errors.New("browser automation unavailable")

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type ServiceResult struct {
	ServiceName        string        `json:"service_name"`
	TranslatedText     string        `json:"translated_text"`
	DetectedSourceLang string        `json:"detected_source_lang,omitempty"`
	DetectedTargetLang string        `json:"detected_target_lang,omitempty"`
	Latency            time.Duration `json:"latency"`
	Error              string        `json:"error,omitempty"`
}

type TranslationService interface {
	Name() string
	Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
}
