package translator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/text/language"

	"github.com/valpere/deeplserver/internal/chunker"
	"github.com/valpere/deeplserver/internal/postprocess"
)

const (
	deeplTranslatorURL = "https://www.deepl.com/translator"

	// DeepL's web form rejects longer input without an account.
	deeplMaxChars = 1500

	deeplPollInterval = 200 * time.Millisecond
)

// targetTextJS yields the target field's text once DeepL has filled it and
// false before, so chromedp.Poll keeps waiting.
const targetTextJS = `(() => {
	const el = document.querySelector('d-textarea[data-testid="translator-target-input"]');
	if (!el) return false;
	const text = el.innerText.trim();
	return text.length > 0 ? text : false;
})()`

// browserNames are tried in order when no explicit browser path is set.
var browserNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

var fragmentEscaper = strings.NewReplacer(`\`, `\\`, `/`, `\/`, `|`, `\|`)

// DeepLService drives the DeepL web translator in a headless Chromium.
type DeepLService struct {
	browserPath string
	headless    bool
	lookPath    func(file string) (string, error)
}

func NewDeepLService(browserPath string, headless bool) *DeepLService {
	return &DeepLService{
		browserPath: browserPath,
		headless:    headless,
		lookPath:    exec.LookPath,
	}
}

func (s *DeepLService) Name() string {
	return "deepl"
}

func (s *DeepLService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	sourceLang, err := normalizeLang(req.SourceLang, true)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	targetLang, err := normalizeLang(req.TargetLang, false)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	browser, err := s.findBrowser()
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		chromedp.Flag("headless", s.headless),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// An empty Run only starts the browser, so launch failures can be told
	// apart from page failures.
	if err := chromedp.Run(browserCtx); err != nil {
		if ctx.Err() == nil {
			err = fmt.Errorf("%w: failed to start %s: %v", ErrAutomationUnavailable, browser, err)
		}
		result.Error = err.Error()
		return result, err
	}

	var parts []string
	for _, chunk := range chunker.Chunk(req.Text, deeplMaxChars) {
		translated, detectedSource, detectedTarget, err := s.translateChunk(browserCtx, sourceLang, targetLang, chunk)
		if err != nil {
			result.Error = err.Error()
			return result, err
		}
		parts = append(parts, translated)
		if result.DetectedSourceLang == "" {
			result.DetectedSourceLang = detectedSource
		}
		if result.DetectedTargetLang == "" {
			result.DetectedTargetLang = detectedTarget
		}
	}

	result.TranslatedText = postprocess.Clean(strings.Join(parts, "\n\n"))
	if result.TranslatedText == "" {
		result.Error = "empty translation response"
		return result, errors.New("empty translation response")
	}

	return result, nil
}

// translateChunk opens a fresh tab per chunk; a fragment-only navigation in
// an existing tab does not fire a load event.
func (s *DeepLService) translateChunk(browserCtx context.Context, sourceLang, targetLang, text string) (string, string, string, error) {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	var translated, location string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(translatorURL(sourceLang, targetLang, text)),
		chromedp.Poll(targetTextJS, &translated, chromedp.WithPollingInterval(deeplPollInterval)),
		chromedp.Location(&location),
	)
	if err != nil {
		return "", "", "", fmt.Errorf("page automation failed: %w", err)
	}

	detectedSource, detectedTarget := parseFragmentLangs(location)
	return translated, detectedSource, detectedTarget, nil
}

func (s *DeepLService) IsAvailable(ctx context.Context) error {
	_, err := s.findBrowser()
	return err
}

func (s *DeepLService) findBrowser() (string, error) {
	if s.browserPath != "" {
		path, err := s.lookPath(s.browserPath)
		if err != nil {
			return "", fmt.Errorf("%w: browser %q: %v", ErrAutomationUnavailable, s.browserPath, err)
		}
		return path, nil
	}

	for _, name := range browserNames {
		if path, err := s.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no Chromium-family browser found in PATH", ErrAutomationUnavailable)
}

// normalizeLang reduces a BCP 47 code to the lowercase base language DeepL
// uses in its URL fragment.
func normalizeLang(code string, allowAuto bool) (string, error) {
	code = strings.TrimSpace(code)
	if allowAuto && strings.EqualFold(code, "auto") {
		return "auto", nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

func translatorURL(sourceLang, targetLang, text string) string {
	return fmt.Sprintf("%s#%s/%s/%s", deeplTranslatorURL, sourceLang, targetLang,
		url.PathEscape(fragmentEscaper.Replace(text)))
}

// parseFragmentLangs reads the language pair DeepL writes back into the URL
// fragment, e.g. https://www.deepl.com/en/translator#en/ru/hello.
func parseFragmentLangs(location string) (string, string) {
	_, fragment, ok := strings.Cut(location, "#")
	if !ok {
		return "", ""
	}
	parts := strings.SplitN(fragment, "/", 3)
	if len(parts) < 2 {
		return "", ""
	}
	source := strings.ToLower(parts[0])
	if source == "auto" {
		source = ""
	}
	return source, strings.ToLower(parts[1])
}
