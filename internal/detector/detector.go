// Package detector guesses the language of a text for requests that ask for
// source language "auto".
package detector

import (
	"strings"
	"sync"

	lingua "github.com/pemistahl/lingua-go"
)

// DeepLLanguages are the source languages the DeepL web translator accepts.
var DeepLLanguages = []lingua.Language{
	lingua.Arabic, lingua.Bulgarian, lingua.Chinese, lingua.Czech,
	lingua.Danish, lingua.Dutch, lingua.English, lingua.Estonian,
	lingua.Finnish, lingua.French, lingua.German, lingua.Greek,
	lingua.Hungarian, lingua.Indonesian, lingua.Italian, lingua.Japanese,
	lingua.Korean, lingua.Latvian, lingua.Lithuanian, lingua.Bokmal,
	lingua.Polish, lingua.Portuguese, lingua.Romanian, lingua.Russian,
	lingua.Slovak, lingua.Slovene, lingua.Spanish, lingua.Swedish,
	lingua.Turkish, lingua.Ukrainian,
}

// Detector wraps a lingua detector that is built on first use; loading the
// language models takes seconds and most requests never need it.
type Detector struct {
	languages []lingua.Language
	once      sync.Once
	detector  lingua.LanguageDetector
}

// New returns a Detector restricted to DeepLLanguages.
func New() *Detector {
	return NewFromLanguages(DeepLLanguages...)
}

func NewFromLanguages(languages ...lingua.Language) *Detector {
	return &Detector{languages: languages}
}

func (d *Detector) build() {
	d.detector = lingua.NewLanguageDetectorBuilder().
		FromLanguages(d.languages...).
		Build()
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	d.once.Do(d.build)
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lowercase ISO 639-1 code of the detected language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
