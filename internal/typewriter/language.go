package typewriter

import (
	"bytes"
	"fmt"

	"github.com/MeKo-Tech/contourbg/assets"
	"github.com/spf13/viper"
)

// Language selects which track is shown.
type Language string

const (
	Chinese Language = "cn"
	English Language = "en"
)

// ParseLanguage accepts "cn" or "en"; empty means Chinese.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case Chinese, English:
		return l, nil
	case "":
		return Chinese, nil
	default:
		return "", fmt.Errorf("unknown language %q (want cn or en)", s)
	}
}

// Toggle returns the other language.
func (l Language) Toggle() Language {
	if l == English {
		return Chinese
	}
	return English
}

// Index is the track index of the language in a writer built by Hero.
func (l Language) Index() int {
	if l == English {
		return 1
	}
	return 0
}

// Hero returns a writer over the embedded hero line, Chinese track first.
func Hero() (*Writer, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(assets.HeroYAML)); err != nil {
		return nil, fmt.Errorf("failed to parse hero text: %w", err)
	}

	var cn, en []Segment
	if err := v.UnmarshalKey(string(Chinese), &cn); err != nil {
		return nil, fmt.Errorf("failed to decode hero text (cn): %w", err)
	}
	if err := v.UnmarshalKey(string(English), &en); err != nil {
		return nil, fmt.Errorf("failed to decode hero text (en): %w", err)
	}
	return New(cn, en), nil
}
