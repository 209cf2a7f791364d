package calendar

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// ContentType is the media type of an encoded feed
const ContentType = "text/calendar; charset=utf-8"

// Serializer encodes events into a calendar document
type Serializer interface {
	Serialize(events []Event) ([]byte, error)
}

// ICSSerializer encodes events as iCalendar (RFC 5545)
type ICSSerializer struct {
	now func() time.Time
}

// SerializerOption configures an ICSSerializer
type SerializerOption func(*ICSSerializer)

// WithClock overrides the time used for DTSTAMP
func WithClock(now func() time.Time) SerializerOption {
	return func(s *ICSSerializer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewICSSerializer creates an iCalendar serializer
func NewICSSerializer(opts ...SerializerOption) *ICSSerializer {
	s := &ICSSerializer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialize encodes events into one VCALENDAR. Calendar level properties are
// taken from the first event.
func (s *ICSSerializer) Serialize(events []Event) ([]byte, error) {
	if len(events) == 0 {
		return nil, ErrEmptyCalendar
	}

	first := events[0]
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, first.ProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	if first.CalendarName != "" {
		cal.Props.Set(rawTextProp(ical.PropName, first.CalendarName))
		cal.Props.Set(rawTextProp("X-WR-CALNAME", first.CalendarName))
	}

	stamp := s.now().UTC()
	for _, ev := range events {
		cal.Children = append(cal.Children, s.event(ev, stamp).Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ICSSerializer) event(ev Event, stamp time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, ev.UID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	event.Props.SetDate(ical.PropDateTimeStart, ev.Start)
	event.Props.SetDate(ical.PropDateTimeEnd, ev.End)
	if ev.Title != "" {
		event.Props.SetText(ical.PropSummary, ev.Title)
	}
	if ev.Description != "" {
		event.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Classification != "" {
		event.Props.SetText(ical.PropClass, ev.Classification)
	}
	if u, err := url.Parse(ev.URL); err == nil && ev.URL != "" {
		event.Props.SetURI(ical.PropURL, u)
	}
	if ev.ImageURL != "" {
		if u, err := url.Parse(ev.ImageURL); err == nil {
			event.Props.SetURI(ical.PropImage, u)
			event.Props.Set(altDescription(ev))
		}
	}
	return event
}

// altDescription renders the cover image as an HTML description for clients
// that support one
func altDescription(ev Event) *ical.Prop {
	prop := rawTextProp("X-ALT-DESC", fmt.Sprintf(
		`<!DOCTYPE html><html lang="ja"><body><img src="%s" alt="%s"></body></html>`,
		html.EscapeString(ev.ImageURL), html.EscapeString(ev.Title),
	))
	prop.Params.Set("FMTTYPE", "text/html")
	return prop
}

// textEscaper applies RFC 5545 TEXT escaping
var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

// rawTextProp builds a text property without a VALUE parameter, which
// go-ical adds to properties it does not know
func rawTextProp(name, text string) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Value = textEscaper.Replace(text)
	return prop
}
