package domain

import (
	"fmt"
	"strings"
	"time"
)

// Name casing modes.
const (
	CasingTitle = "title"
	CasingUpper = "upper"
	CasingLower = "lower"
	CasingNone  = "none"
)

// EmailSettings controls email normalization.
type EmailSettings struct {
	Enabled        bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	Lowercase      bool `json:"lowercase" yaml:"lowercase" toml:"lowercase"`
	TrimWhitespace bool `json:"trim_whitespace" yaml:"trim_whitespace" toml:"trim_whitespace"`
}

// PhoneSettings controls phone normalization. Stored with templates only.
type PhoneSettings struct {
	Enabled        bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Format         string `json:"format" yaml:"format" toml:"format"`
	RemoveSpaces   bool   `json:"remove_spaces" yaml:"remove_spaces" toml:"remove_spaces"`
	AddCountryCode bool   `json:"add_country_code" yaml:"add_country_code" toml:"add_country_code"`
}

// NameSettings controls name normalization.
type NameSettings struct {
	Enabled          bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Casing           string `json:"casing" yaml:"casing" toml:"casing"`
	TrimWhitespace   bool   `json:"trim_whitespace" yaml:"trim_whitespace" toml:"trim_whitespace"`
	RemoveMiddleName bool   `json:"remove_middle_name" yaml:"remove_middle_name" toml:"remove_middle_name"`
}

// CompanySettings controls company normalization. Stored with templates only.
type CompanySettings struct {
	Enabled   bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	RemoveInc bool `json:"remove_inc" yaml:"remove_inc" toml:"remove_inc"`
	RemoveLLC bool `json:"remove_llc" yaml:"remove_llc" toml:"remove_llc"`
}

// JobTitleSettings controls job title normalization. Stored with templates only.
type JobTitleSettings struct {
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Casing  string `json:"casing" yaml:"casing" toml:"casing"`
}

// NormalizationSettings is the full set of cleaning toggles saved in a template.
type NormalizationSettings struct {
	Email    EmailSettings    `json:"email" yaml:"email" toml:"email"`
	Phone    PhoneSettings    `json:"phone" yaml:"phone" toml:"phone"`
	Name     NameSettings     `json:"name" yaml:"name" toml:"name"`
	Company  CompanySettings  `json:"company" yaml:"company" toml:"company"`
	JobTitle JobTitleSettings `json:"job_title" yaml:"job_title" toml:"job_title"`
}

// DefaultNormalizationSettings mirrors the defaults of the cleaning screen: every group off.
func DefaultNormalizationSettings() NormalizationSettings {
	return NormalizationSettings{
		Email:    EmailSettings{Lowercase: true, TrimWhitespace: true},
		Phone:    PhoneSettings{Format: "e164", RemoveSpaces: true, AddCountryCode: true},
		Name:     NameSettings{Casing: CasingTitle, TrimWhitespace: true},
		Company:  CompanySettings{RemoveInc: true},
		JobTitle: JobTitleSettings{Casing: CasingTitle},
	}
}

// Template is a named, saved cleaning configuration.
type Template struct {
	ID        string                `json:"id" toml:"id"`
	Name      string                `json:"name" toml:"name"`
	Settings  NormalizationSettings `json:"settings" toml:"settings"`
	Threshold float64               `json:"threshold,omitempty" toml:"threshold,omitempty"`
	Weights   map[string]float64    `json:"weights,omitempty" toml:"weights,omitempty"`
	CreatedAt time.Time             `json:"created_at" toml:"created_at"`
	UpdatedAt time.Time             `json:"updated_at" toml:"updated_at"`
}

// NormalizeTemplateName trims the name and rejects blanks.
func NormalizeTemplateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	return name, nil
}

// Validate checks the template name and, when set, its weights.
func (t Template) Validate() error {
	if _, err := NormalizeTemplateName(t.Name); err != nil {
		return err
	}
	if len(t.Weights) > 0 {
		if err := WeightsFromMap(t.Weights).Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
	}
	return nil
}
