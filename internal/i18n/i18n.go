// Package i18n renders user-facing dates and messages in the configured
// locale and time zone.
package i18n

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goodsign/monday"

	// Embedded zone database so APP_TIMEZONE works on minimal images
	_ "time/tzdata"
)

type catalog struct {
	dateLayout string
	lowercase  bool
	newBooking string
	canceled   string
}

var catalogs = map[monday.Locale]catalog{
	monday.LocalePtBR: {
		dateLayout: "dia 2 de January, às 15:04h",
		lowercase:  true,
		newBooking: "Novo agendamento de %s para o %s",
		canceled:   "Agendamento cancelado",
	},
	monday.LocaleEnUS: {
		dateLayout: "January 2, at 15:04",
		newBooking: "New booking by %s for %s",
		canceled:   "Appointment canceled",
	},
	monday.LocaleEsES: {
		dateLayout: "2 de January, a las 15:04",
		lowercase:  true,
		newBooking: "Nueva cita de %s para el %s",
		canceled:   "Cita cancelada",
	},
}

// SupportedLocales lists the locales with message catalogs, sorted
func SupportedLocales() []string {
	locales := make([]string, 0, len(catalogs))
	for l := range catalogs {
		locales = append(locales, string(l))
	}
	sort.Strings(locales)
	return locales
}

// Formatter formats times and notification texts for one locale and zone
type Formatter struct {
	locale   monday.Locale
	location *time.Location
	catalog  catalog
}

// NewFormatter builds a formatter for a locale such as "pt_BR" and an IANA zone
func NewFormatter(locale, timezone string) (*Formatter, error) {
	c, ok := catalogs[monday.Locale(locale)]
	if !ok {
		return nil, fmt.Errorf("unsupported locale %q, expected one of %s",
			locale, strings.Join(SupportedLocales(), ", "))
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return &Formatter{
		locale:   monday.Locale(locale),
		location: loc,
		catalog:  c,
	}, nil
}

// Locale returns the formatter's locale code
func (f *Formatter) Locale() string {
	return string(f.locale)
}

// Location returns the zone dates are rendered in
func (f *Formatter) Location() *time.Location {
	return f.location
}

// FormatDate renders t as a day-and-time phrase, e.g. "dia 20 de outubro, às 14:00h"
func (f *Formatter) FormatDate(t time.Time) string {
	s := monday.Format(t.In(f.location), f.catalog.dateLayout, f.locale)
	if f.catalog.lowercase {
		s = strings.ToLower(s)
	}
	return s
}

// NewBookingMessage is the notification text sent to a provider when
// requester books the slot starting at t
func (f *Formatter) NewBookingMessage(requester string, t time.Time) string {
	return fmt.Sprintf(f.catalog.newBooking, requester, f.FormatDate(t))
}

// CanceledSubject is the subject line of cancellation emails
func (f *Formatter) CanceledSubject() string {
	return f.catalog.canceled
}
