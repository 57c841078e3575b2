package translate

import (
	"golang.org/x/text/language"
)

// _catalog holds the translations of the en-US messages.
var _catalog = map[language.Tag]map[string]string{
	language.German: {
		// cpu
		"program exceeds memory":   "Programm überschreitet den Speicher",
		"stack empty":              "Stapel leer",
		"stack full":               "Stapel voll",
		"cycles per frame invalid": "ungültige Zyklen pro Bild",
		"bad opcode 0x%04x %v":     "fehlerhafter Befehl 0x%04x %v",

		// assembler
		".equ syntax":                     ".equ Syntaxfehler",
		".equ duplicated":                 ".equ doppelt",
		"label duplicated":                "Marke doppelt",
		"label %v missing":                "Marke %v fehlt",
		".macro syntax":                   ".macro Syntaxfehler",
		".macro in .macro prohibited":     ".macro in .macro verboten",
		".macro duplicated":               ".macro doppelt",
		".macro without .endm":            ".macro ohne .endm",
		".endm without .macro":            ".endm ohne .macro",
		".org before current address":     ".org vor der aktuellen Adresse",
		"excessive arguments":             "zu viele Argumente",
		"value missing":                   "Wert fehlt",
		"register invalid":                "ungültiges Register",
		"value out of range":              "Wert außerhalb des Bereichs",
		"instruction invalid":             "ungültige Anweisung",
		"line %d '%v' %v":                 "Zeile %d '%v' %v",
		"'%v' is not a number":            "'%v' ist keine Zahl",
		"'%v' is not a character":         "'%v' ist kein Zeichen",
		"$(%v) is not a valid expression": "$(%v) ist kein gültiger Ausdruck",
		"macro %v line %v %v":             "Makro %v Zeile %v %v",

		// emulator
		"0x%03x line %d %v": "0x%03x Zeile %d %v",
		"config %v: %v":     "Konfiguration %v: %v",
		"wrong type":        "falscher Typ",
		"out of range":      "außerhalb des Bereichs",

		// io
		"rom too large": "ROM zu groß",
		"key invalid":   "ungültige Taste",
		"BEEP":          "PIEP",
	},
}
