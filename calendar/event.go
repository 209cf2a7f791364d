// Package calendar turns AniList media into all-day calendar events and encodes
// them as an iCalendar feed.
package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/s0up4200/animecal/anilist"
)

const (
	// CalendarName is the display name of the feed
	CalendarName = "アニメ映画 公開予定 (anime-movie-ical)"
	// ProductID identifies the producer of the feed
	ProductID = "anime-movie-ical"
	// ClassificationPublic marks events as public
	ClassificationPublic = "PUBLIC"
)

// sourceZone is the zone AniList release dates are expressed in
var sourceZone = time.FixedZone("JST", 9*60*60)

// Event is one all-day release event
type Event struct {
	UID            string
	Title          string
	Description    string
	URL            string
	ImageURL       string
	Start          time.Time // UTC midnight of the release day
	End            time.Time // UTC midnight of the following day
	Classification string
	CalendarName   string
	ProductID      string
}

// ReleaseDate returns the release day of d as UTC midnight of the same civil
// date. It fails for incomplete dates and for dates that do not exist.
func ReleaseDate(d anilist.FuzzyDate) (time.Time, bool) {
	year, month, day, ok := d.Civil()
	if !ok {
		return time.Time{}, false
	}

	local := time.Date(year, time.Month(month), day, 0, 0, 0, 0, sourceZone)
	if local.Year() != year || int(local.Month()) != month || local.Day() != day {
		return time.Time{}, false
	}

	_, offset := local.Zone()
	return local.Add(time.Duration(offset) * time.Second).UTC(), true
}

// DeriveEvent builds the event for m. It reports false when m has no complete
// release date.
func DeriveEvent(m anilist.Media) (Event, bool) {
	start, ok := ReleaseDate(m.StartDate)
	if !ok {
		return Event{}, false
	}

	return Event{
		UID:            strconv.Itoa(m.ID),
		Title:          m.NativeTitle(),
		Description:    description(m),
		URL:            m.SiteURL,
		ImageURL:       m.CoverURL(),
		Start:          start,
		End:            start.AddDate(0, 0, 1),
		Classification: ClassificationPublic,
		CalendarName:   CalendarName,
		ProductID:      ProductID,
	}, true
}

// DeriveEvents maps media to events in order, skipping records without a
// complete release date
func DeriveEvents(media []anilist.Media) []Event {
	events := make([]Event, 0, len(media))
	for _, m := range media {
		if ev, ok := DeriveEvent(m); ok {
			events = append(events, ev)
		}
	}
	return events
}

// description lists the official links followed by the AniList page
func description(m anilist.Media) string {
	info := m.LinksOfType(anilist.InfoLinkType)
	lines := make([]string, 0, len(info)+1)
	for _, l := range info {
		lines = append(lines, l.URL)
	}
	lines = append(lines, m.SiteURL)
	return strings.Join(lines, "\n")
}
