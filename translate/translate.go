package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer *message.Printer

// supported are the languages messages are written in.
var supported = language.NewMatcher([]language.Tag{
	language.AmericanEnglish,
})

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("ls8: locale: %v", err)
	}

	SetLanguage(locales...)
}

// SetLanguage selects the message printer for the best supported match of
// the given BCP 47 tags. Unparsable tags are ignored; with no usable tags,
// en-US is used.
func SetLanguage(tags ...string) language.Tag {
	var wanted []language.Tag
	for _, str := range tags {
		tag, err := language.Parse(str)
		if err != nil {
			continue
		}
		wanted = append(wanted, tag)
	}

	tag, _, _ := supported.Match(wanted...)
	printer = message.NewPrinter(tag)

	return tag
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
