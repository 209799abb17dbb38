package i18n

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cleared-dev/teller/internal/model"
)

// Printer renders catalog messages and amounts in one language.
type Printer struct {
	cat  *Catalog
	lang model.Language
	num  *message.Printer
}

// NewPrinter returns a Printer over cat.
func NewPrinter(cat *Catalog, lang model.Language) *Printer {
	tag := language.English
	if lang == model.Korean {
		tag = language.Korean
	}
	return &Printer{cat: cat, lang: lang, num: message.NewPrinter(tag)}
}

// ForTerminal picks the language a terminal allows: unilingual terminals
// always use English.
func ForTerminal(cat *Catalog, mode model.LanguageMode, requested model.Language) *Printer {
	if mode != model.LanguageBilingual {
		requested = model.English
	}
	return NewPrinter(cat, requested)
}

// Language returns the printer's language.
func (p *Printer) Language() model.Language {
	return p.lang
}

// Message formats key with fmt-style args. Unknown keys render as the key.
func (p *Printer) Message(key string, args ...any) string {
	s, ok := p.cat.Lookup(key, p.lang)
	if !ok {
		return key
	}
	if len(args) == 0 {
		return s
	}
	return fmt.Sprintf(s, args...)
}

// Currency formats an amount as "KRW 1,000" or "1,000원".
func (p *Printer) Currency(amount int64) string {
	n := p.num.Sprintf("%d", amount)
	if p.lang == model.Korean {
		return n + "원"
	}
	return "KRW " + n
}

// Error renders err through the catalog when it carries a known kind.
func (p *Printer) Error(err error) string {
	var e *model.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	s, ok := p.cat.Lookup(string(e.Kind), p.lang)
	if !ok {
		return err.Error()
	}
	r := strings.NewReplacer(
		"{expected}", p.value(e.Kind, e.Expected),
		"{supplied}", p.value(e.Kind, e.Supplied),
		"{remaining}", strconv.Itoa(e.Remaining),
	)
	return r.Replace(s)
}

// value renders a detail value; counts stay plain numbers.
func (p *Printer) value(kind model.ErrorKind, v int64) string {
	switch kind {
	case model.KindMaxBillsExceeded, model.KindMaxWithdrawalsExceeded, model.KindMaxCheckDepositsExceeded:
		return strconv.FormatInt(v, 10)
	default:
		return p.Currency(v)
	}
}
