// Package translate renders user visible messages in the user's language.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	mu      sync.RWMutex
	current language.Tag
	printer *message.Printer
)

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("chip8: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	current = message.MatchLanguage(locales...)
	printer = message.NewPrinter(current)
}

// Language returns the language messages are rendered in.
func Language() language.Tag {
	mu.RLock()
	defer mu.RUnlock()

	return current
}

// SetLanguage replaces the printer language, and returns the previous one.
func SetLanguage(tag language.Tag) (old language.Tag) {
	mu.Lock()
	defer mu.Unlock()

	old = current
	current = tag
	printer = message.NewPrinter(tag)

	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	mu.RLock()
	defer mu.RUnlock()

	return printer.Sprintf(key, args...)
}
