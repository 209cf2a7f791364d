package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/animecal/anilist"
)

var fixedStamp = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

func serialize(t *testing.T, events []Event) string {
	t.Helper()
	out, err := NewICSSerializer(WithClock(func() time.Time { return fixedStamp })).Serialize(events)
	require.NoError(t, err)
	return string(out)
}

func TestSerialize(t *testing.T) {
	m := anilist.Media{
		ID:        171018,
		SiteURL:   "https://anilist.co/anime/171018",
		StartDate: date(2025, 7, 18),
		Title:     anilist.MediaTitle{Native: strPtr("劇場版 鬼滅の刃 無限城編")},
		ExternalLinks: []anilist.ExternalLink{
			{URL: "https://kimetsu.com/anime/mugenjyo/", Type: "INFO"},
		},
		CoverImage: &anilist.CoverImage{ExtraLarge: strPtr("https://img.anili.st/171018.jpg")},
	}
	ev, ok := DeriveEvent(m)
	require.True(t, ok)

	out := serialize(t, []Event{ev})

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "PRODID:"+ProductID)
	assert.Contains(t, out, "\r\nNAME:"+CalendarName+"\r\n")
	assert.Contains(t, out, "\r\nX-WR-CALNAME:"+CalendarName+"\r\n")
	assert.Contains(t, out, "\r\nX-ALT-DESC;FMTTYPE=text/html:")
	assert.NotContains(t, out, "VALUE=TEXT")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250718")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250719")
	assert.Contains(t, out, "DTSTAMP:20250601T083000Z")
	assert.Contains(t, out, "CLASS:PUBLIC")

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1)
	got := events[0]

	uid, err := got.Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "171018", uid)

	summary, err := got.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "劇場版 鬼滅の刃 無限城編", summary)

	desc, err := got.Props.Text(ical.PropDescription)
	require.NoError(t, err)
	assert.Equal(t, "https://kimetsu.com/anime/mugenjyo/\nhttps://anilist.co/anime/171018", desc)

	require.NotNil(t, got.Props.Get(ical.PropURL))
	assert.Equal(t, "https://anilist.co/anime/171018", got.Props.Get(ical.PropURL).Value)
	require.NotNil(t, got.Props.Get(ical.PropImage))
	assert.Equal(t, "https://img.anili.st/171018.jpg", got.Props.Get(ical.PropImage).Value)
	assert.NotNil(t, got.Props.Get("X-ALT-DESC"))
}

func TestSerializeOrderAndOptionalFields(t *testing.T) {
	events := DeriveEvents([]anilist.Media{
		movie(2, date(2025, 9, 1)),
		{ID: 1, SiteURL: "https://anilist.co/anime/1", StartDate: date(2025, 8, 1)},
	})
	require.Len(t, events, 2)

	out := serialize(t, events)
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Less(t, strings.Index(out, "UID:2"), strings.Index(out, "UID:1"))
	assert.Equal(t, 1, strings.Count(out, "X-ALT-DESC"), "only events with a cover get an HTML description")
	assert.Equal(t, 1, strings.Count(out, "SUMMARY"), "untitled events have no summary")
}

func TestSerializeEscapesAltDescription(t *testing.T) {
	m := movie(7, date(2025, 5, 5))
	m.Title.Native = strPtr("劇場版 A, B; C")
	out := serialize(t, DeriveEvents([]anilist.Media{m}))

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	alt := events[0].Props.Get("X-ALT-DESC")
	require.NotNil(t, alt)
	assert.Equal(t, "text/html", alt.Params.Get("FMTTYPE"))
	assert.Contains(t, alt.Value, `alt="劇場版 A\, B\; C"`)
}

func TestSerializeDeterministic(t *testing.T) {
	events := DeriveEvents([]anilist.Media{movie(3, date(2025, 10, 10))})
	assert.Equal(t, serialize(t, events), serialize(t, events))
}

func TestSerializeEmpty(t *testing.T) {
	_, err := NewICSSerializer().Serialize(nil)
	assert.ErrorIs(t, err, ErrEmptyCalendar)
}

func TestSerializerInterface(t *testing.T) {
	var s Serializer = NewICSSerializer()
	out, err := s.Serialize(DeriveEvents([]anilist.Media{movie(4, date(2025, 12, 24))}))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte("END:VCALENDAR")))
}
