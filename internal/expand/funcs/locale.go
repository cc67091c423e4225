package funcs

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// dateSymbols holds the localized names used by the date formatter.
// Weekdays start on Sunday to line up with time.Weekday.
type dateSymbols struct {
	months        [12]string
	shortMonths   [12]string
	weekdays      [7]string
	shortWeekdays [7]string
	eras          [2]string
	ampm          [2]string
}

var supportedLocales = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Estonian,
}

var localeSymbols = []*dateSymbols{
	{
		months:        [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		shortMonths:   [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		weekdays:      [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		shortWeekdays: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		eras:          [2]string{"BC", "AD"},
		ampm:          [2]string{"AM", "PM"},
	},
	{
		months:        [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		shortMonths:   [12]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
		weekdays:      [7]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
		shortWeekdays: [7]string{"So.", "Mo.", "Di.", "Mi.", "Do.", "Fr.", "Sa."},
		eras:          [2]string{"v. Chr.", "n. Chr."},
		ampm:          [2]string{"AM", "PM"},
	},
	{
		months:        [12]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		shortMonths:   [12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
		weekdays:      [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
		shortWeekdays: [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
		eras:          [2]string{"av. J.-C.", "ap. J.-C."},
		ampm:          [2]string{"AM", "PM"},
	},
	{
		months:        [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		shortMonths:   [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
		weekdays:      [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
		shortWeekdays: [7]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"},
		eras:          [2]string{"a. C.", "d. C."},
		ampm:          [2]string{"a. m.", "p. m."},
	},
	{
		months:        [12]string{"jaanuar", "veebruar", "märts", "aprill", "mai", "juuni", "juuli", "august", "september", "oktoober", "november", "detsember"},
		shortMonths:   [12]string{"jaan", "veebr", "märts", "apr", "mai", "juuni", "juuli", "aug", "sept", "okt", "nov", "dets"},
		weekdays:      [7]string{"pühapäev", "esmaspäev", "teisipäev", "kolmapäev", "neljapäev", "reede", "laupäev"},
		shortWeekdays: [7]string{"P", "E", "T", "K", "N", "R", "L"},
		eras:          [2]string{"eKr", "pKr"},
		ampm:          [2]string{"AM", "PM"},
	},
}

var localeMatcher = language.NewMatcher(supportedLocales)

// lookupLocale resolves a locale id such as "de", "en_US" or "fr-CA" to the
// closest supported symbol table. An id that BCP 47 rejects as a whole, such
// as "de_DE_POSIX", is retried with its language subtag alone; only an id
// whose language subtag does not parse is invalid. Parsed ids with no close
// match get English.
func lookupLocale(id string) (*dateSymbols, error) {
	tag, err := language.Parse(strings.ReplaceAll(id, "_", "-"))
	if err != nil {
		lang, _, _ := strings.Cut(strings.ReplaceAll(id, "_", "-"), "-")
		base, berr := language.ParseBase(lang)
		if berr != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLocale, id)
		}
		tag = language.Make(base.String())
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(localeSymbols) {
		idx = 0
	}
	return localeSymbols[idx], nil
}
