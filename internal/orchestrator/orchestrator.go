// Package orchestrator is the single call site of the translation service.
// It bounds the call with a timeout, answers from the fallback when browser
// automation is unavailable, and shapes the provider output into the
// response payload.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valpere/deeplserver/internal"
	"github.com/valpere/deeplserver/internal/store"
	"github.com/valpere/deeplserver/internal/translator"
)

const (
	DefaultTimeout = 15 * time.Second

	autoLang = "auto"
)

// Memory is the translation memory consulted before the provider.
type Memory interface {
	GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (*store.CachedTranslation, bool, error)
	SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang string, c store.CachedTranslation) error
}

type LanguageDetector interface {
	DetectISO(text string) (string, bool)
}

type OrchestratorConfig struct {
	Timeout time.Duration

	// Fallback answers when the service reports ErrAutomationUnavailable.
	// Nil means those errors are returned like any other.
	Fallback translator.TranslationService

	// Memory and Detector are optional.
	Memory   Memory
	Detector LanguageDetector

	Logger *slog.Logger
}

type Orchestrator struct {
	service translator.TranslationService
	config  OrchestratorConfig
}

func New(service translator.TranslationService, config OrchestratorConfig) *Orchestrator {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Orchestrator{
		service: service,
		config:  config,
	}
}

// Translate runs one request end to end. Errors returned are provider
// failures and already carry the "DeepL translation failed" prefix.
func (o *Orchestrator) Translate(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error) {
	log := o.config.Logger.With("from", req.SourceLang, "to", req.TargetLang)

	if cached, ok := o.lookupMemory(ctx, req); ok {
		log.Debug("translation memory hit", "service", cached.ServiceUsed)
		return o.buildResult(req, cached.TranslatedText, cached.DetectedSourceLang, cached.DetectedTargetLang), nil
	}

	serviceCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	svcReq := translator.TranslateRequest{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
	}

	res, err := o.service.Translate(serviceCtx, svcReq)
	if err != nil && errors.Is(err, translator.ErrAutomationUnavailable) && o.config.Fallback != nil {
		log.Warn("browser automation unavailable, using fallback", "service", o.config.Fallback.Name(), "err", err)
		return o.translateFallback(ctx, req)
	}
	if err != nil {
		log.Error("translation failed", "service", o.service.Name(), "err", err)
		return nil, fmt.Errorf("DeepL translation failed: %w", err)
	}

	log.Info("translated", "service", res.ServiceName, "latency", res.Latency)
	o.saveMemory(ctx, req, res)

	return o.buildResult(req, res.TranslatedText, res.DetectedSourceLang, res.DetectedTargetLang), nil
}

func (o *Orchestrator) translateFallback(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error) {
	sourceLang := req.SourceLang
	if guessed := o.guessSource(req); guessed != "" {
		sourceLang = guessed
	}

	res, err := o.config.Fallback.Translate(ctx, translator.TranslateRequest{
		Text:       req.Text,
		SourceLang: sourceLang,
		TargetLang: req.TargetLang,
	})
	if err != nil {
		return nil, fmt.Errorf("DeepL translation failed: %w", err)
	}

	detectedSource := res.DetectedSourceLang
	if detectedSource == "" && sourceLang != req.SourceLang {
		detectedSource = sourceLang
	}
	return o.buildResult(req, res.TranslatedText, detectedSource, res.DetectedTargetLang), nil
}

// buildResult applies the reporting rule: detected languages default to the
// requested ones, and "detected" is empty unless the source differs from
// what was asked for.
func (o *Orchestrator) buildResult(req internal.TranslationRequest, translated, detectedSource, detectedTarget string) *internal.TranslationResult {
	if detectedSource == "" {
		detectedSource = o.guessSource(req)
	}
	if detectedSource == "" {
		detectedSource = req.SourceLang
	}
	if detectedTarget == "" {
		detectedTarget = req.TargetLang
	}

	detected := ""
	if detectedSource != req.SourceLang {
		detected = detectedSource
	}

	return &internal.TranslationResult{
		Engine:         internal.EngineDeepL,
		Detected:       detected,
		TranslatedText: translated,
		SourceLang:     detectedSource,
		TargetLang:     detectedTarget,
	}
}

// guessSource runs the detector for "auto" requests only.
func (o *Orchestrator) guessSource(req internal.TranslationRequest) string {
	if req.SourceLang != autoLang || o.config.Detector == nil {
		return ""
	}
	code, ok := o.config.Detector.DetectISO(req.Text)
	if !ok {
		return ""
	}
	return code
}

func (o *Orchestrator) lookupMemory(ctx context.Context, req internal.TranslationRequest) (*store.CachedTranslation, bool) {
	if o.config.Memory == nil {
		return nil, false
	}
	cached, found, err := o.config.Memory.GetCachedTranslation(ctx, req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		o.config.Logger.Warn("translation memory lookup failed", "err", err)
		return nil, false
	}
	return cached, found
}

func (o *Orchestrator) saveMemory(ctx context.Context, req internal.TranslationRequest, res *translator.ServiceResult) {
	if o.config.Memory == nil {
		return
	}
	err := o.config.Memory.SaveToMemory(ctx, req.Text, req.SourceLang, req.TargetLang, store.CachedTranslation{
		TranslatedText:     res.TranslatedText,
		DetectedSourceLang: res.DetectedSourceLang,
		DetectedTargetLang: res.DetectedTargetLang,
		ServiceUsed:        res.ServiceName,
	})
	if err != nil {
		o.config.Logger.Warn("failed to save translation memory", "err", err)
	}
}
