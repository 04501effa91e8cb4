package translator

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type langPair struct {
	source string
	target string
}

var mockTranslations = map[langPair]map[string]string{
	{"en", "ru"}: {
		"hello":                   "привет",
		"hello world":             "привет мир",
		"some text for translate": "некоторый текст для перевода",
	},
	{"en", "ja"}: {
		"hello":       "こんにちは",
		"hello world": "こんにちは世界",
	},
	{"ru", "en"}: {
		"привет":     "hello",
		"привет мир": "hello world",
	},
}

// MockTranslate looks text up in a small seeded table and otherwise returns
// a placeholder marked with [MOCK]. It never fails.
func MockTranslate(sourceLang, targetLang, text string) string {
	if byText, ok := mockTranslations[langPair{sourceLang, targetLang}]; ok {
		if translated, ok := byText[strings.ToLower(text)]; ok {
			return translated
		}
	}
	return fmt.Sprintf("[MOCK] %s (%s->%s)", text, sourceLang, targetLang)
}

// MockService answers from MockTranslate. It stands in for DeepLService
// when no browser is available.
type MockService struct{}

func NewMockService() *MockService {
	return &MockService{}
}

func (s *MockService) Name() string {
	return "mock"
}

func (s *MockService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	start := time.Now()
	return &ServiceResult{
		ServiceName:    s.Name(),
		TranslatedText: MockTranslate(req.SourceLang, req.TargetLang, req.Text),
		Latency:        time.Since(start),
	}, nil
}

func (s *MockService) IsAvailable(ctx context.Context) error {
	return nil
}
