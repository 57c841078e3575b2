// Package translate localizes the user visible messages of the emulator.
//
// Messages are keyed by their en-US format string. The printer language is
// chosen from the user's locales, falling back to en-US.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer *message.Printer

var _supported = []language.Tag{
	language.AmericanEnglish,
	language.German,
}

var _matcher = language.NewMatcher(_supported)

func init() {
	for tag, messages := range _catalog {
		for key, msg := range messages {
			err := message.SetString(tag, key, msg)
			if err != nil {
				log.Printf("chip8: catalog %v: %v", tag, err)
			}
		}
	}

	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("chip8: locale: %v", err)
	}

	printer = Printer(locales...)
}

// Printer returns a message printer for the best match of the locales.
// en-US is used when nothing matches.
func Printer(locales ...string) *message.Printer {
	_, index := language.MatchStrings(_matcher, locales...)

	return message.NewPrinter(_supported[index])
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
