package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"golang.org/x/text/language"
)

func TestPrinter(t *testing.T) {
	assert := assert.New(t)

	en := Printer()
	assert.Equal("stack full", en.Sprintf("stack full"))
	assert.Equal("line 7 'cls' oops", en.Sprintf("line %d '%v' %v", 7, "cls", "oops"))

	de := Printer("de-DE", "en-US")
	assert.Equal("Stapel voll", de.Sprintf("stack full"))
	assert.Equal("Zeile 7 'cls' oops", de.Sprintf("line %d '%v' %v", 7, "cls", "oops"))
	assert.Equal("PIEP", de.Sprintf("BEEP"))

	assert.Equal(".equ Syntaxfehler", de.Sprintf(".equ syntax"))

	// Untranslated messages fall back to en-US.
	assert.Equal("0x200 oops", de.Sprintf("0x%03x %v", 0x200, "oops"))
}

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.NotEmpty(From("stack empty"))
}

func TestCatalog(t *testing.T) {
	assert := assert.New(t)

	// Every user visible message, except those without words.
	messages := []string{
		"program exceeds memory",
		"stack empty",
		"stack full",
		"cycles per frame invalid",
		"bad opcode 0x%04x %v",
		".equ syntax",
		".equ duplicated",
		"label duplicated",
		"label %v missing",
		".macro syntax",
		".macro in .macro prohibited",
		".macro duplicated",
		".macro without .endm",
		".endm without .macro",
		".org before current address",
		"excessive arguments",
		"value missing",
		"register invalid",
		"value out of range",
		"instruction invalid",
		"line %d '%v' %v",
		"'%v' is not a number",
		"'%v' is not a character",
		"$(%v) is not a valid expression",
		"macro %v line %v %v",
		"0x%03x line %d %v",
		"config %v: %v",
		"wrong type",
		"out of range",
		"rom too large",
		"key invalid",
		"BEEP",
	}

	for _, key := range messages {
		msg, ok := _catalog[language.German][key]
		assert.True(ok, key)
		assert.NotEqual(key, msg, key)
	}
	assert.Len(_catalog[language.German], len(messages))
}
