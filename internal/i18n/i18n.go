package i18n

import (
	_ "embed"
	"fmt"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed i18n.yaml
var catalogYAML []byte

// Strings holds every user-visible message for one language. Fields with verbs
// are fmt format strings; argument order is the same across languages.
type Strings struct {
	UserHello               string `yaml:"user_hello"`
	BotHello                string `yaml:"bot_hello"`
	GroupHello              string `yaml:"group_hello"`
	AnotherJobInProgress    string `yaml:"another_job_in_progress"`
	TooManyQueries          string `yaml:"too_many_queries"`
	SendSingleStylePrompt   string `yaml:"send_single_style_prompt"`
	SendNextStylePrompt     string `yaml:"send_next_style_prompt"`
	JobStarted              string `yaml:"job_started"`
	JobProgress             string `yaml:"job_progress"`
	JobCompleted            string `yaml:"job_completed"`
	JobError                string `yaml:"job_error"`
	InvalidFormatPrompt     string `yaml:"invalid_format_prompt"`
	TooBigFilePrompt        string `yaml:"too_big_file_prompt"`
	StyleWeightCaption      string `yaml:"style_weight_caption"`
	StyleScaleCaption       string `yaml:"style_scale_caption"`
	StyleCountCaption       string `yaml:"style_count_caption"`
	NumIterCaption          string `yaml:"num_iter_caption"`
	ImgSizeCaption          string `yaml:"img_size_caption"`
	PreserveColorCaption    string `yaml:"preserve_color_caption"`
	DontPreserveColor       string `yaml:"dont_preserve_color_caption"`
	UnknownSettingsCommand  string `yaml:"unknown_settings_command"`
	NoSuchCommand           string `yaml:"no_such_a_command"`
	SupportHelp             string `yaml:"support_help"`
	SupportQuestionAccepted string `yaml:"support_question_accepted"`
}

// Localizer resolves a chat's language code to a string catalog.
type Localizer struct {
	matcher  language.Matcher
	catalogs map[string]Strings
	fallback Strings
}

// Load parses the embedded catalog. The first language in the catalog order
// below is the fallback for unsupported codes.
func Load() (*Localizer, error) {
	var raw map[string]Strings
	if err := yaml.Unmarshal(catalogYAML, &raw); err != nil {
		return nil, fmt.Errorf("i18n: parse catalog: %w", err)
	}

	supported := []language.Tag{language.English, language.Russian}
	for _, tag := range supported {
		if _, ok := raw[tag.String()]; !ok {
			return nil, fmt.Errorf("i18n: catalog is missing language %q", tag)
		}
	}

	return &Localizer{
		matcher:  language.NewMatcher(supported),
		catalogs: raw,
		fallback: raw[language.English.String()],
	}, nil
}

// For returns the catalog for a chat language code such as "ru" or "en-US".
func (l *Localizer) For(code string) Strings {
	if code == "" {
		return l.fallback
	}
	tag, _ := language.MatchStrings(l.matcher, code)
	base, _ := tag.Base()
	if s, ok := l.catalogs[base.String()]; ok {
		return s
	}
	return l.fallback
}
