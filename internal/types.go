package internal

import "slices"

// Engine identifies a translation backend. DeepL is the only one wired;
// unknown names are accepted and mapped to it.
type Engine string

const EngineDeepL Engine = "deepl"

var SupportedEngines = []Engine{EngineDeepL}

// ParseEngine maps the engine query parameter to a supported Engine,
// defaulting to DeepL.
func ParseEngine(name string) Engine {
	if slices.Contains(SupportedEngines, Engine(name)) {
		return Engine(name)
	}
	return EngineDeepL
}

type TranslationRequest struct {
	Engine     Engine `json:"engine"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Text       string `json:"text"`
}

type TranslationResult struct {
	Engine         Engine `json:"engine"`
	Detected       string `json:"detected"`
	TranslatedText string `json:"translated-text"`
	SourceLang     string `json:"source_language"`
	TargetLang     string `json:"target_language"`
}
