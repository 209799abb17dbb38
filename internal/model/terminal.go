package model

import "fmt"

// BankMode controls which banks a terminal can route to.
type BankMode string

const (
	ModeSingleBank BankMode = "single-bank"
	ModeMultiBank  BankMode = "multi-bank"
)

// ParseBankMode validates a configured bank mode.
func ParseBankMode(s string) (BankMode, error) {
	switch m := BankMode(s); m {
	case ModeSingleBank, ModeMultiBank:
		return m, nil
	default:
		return "", fmt.Errorf("unknown bank mode %q", s)
	}
}

// LanguageMode controls whether a terminal offers a language choice.
type LanguageMode string

const (
	LanguageUnilingual LanguageMode = "unilingual"
	LanguageBilingual  LanguageMode = "bilingual"
)

// ParseLanguageMode validates a configured language mode.
func ParseLanguageMode(s string) (LanguageMode, error) {
	switch m := LanguageMode(s); m {
	case LanguageUnilingual, LanguageBilingual:
		return m, nil
	default:
		return "", fmt.Errorf("unknown language mode %q", s)
	}
}

// Language selects the message table column.
type Language string

const (
	English Language = "en"
	Korean  Language = "ko"
)

// ParseLanguage accepts "en" or "ko".
func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case English, Korean:
		return l, nil
	default:
		return "", fmt.Errorf("unknown language %q", s)
	}
}
