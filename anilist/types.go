package anilist

import "encoding/json"

// InfoLinkType is the external link category AniList uses for official sites
const InfoLinkType = "INFO"

// Media is one upcoming release as returned by AniList
type Media struct {
	ID            int            `json:"id" validate:"required,gt=0"`
	SiteURL       string         `json:"siteUrl" validate:"required,url"`
	StartDate     FuzzyDate      `json:"startDate"`
	Title         MediaTitle     `json:"title"`
	ExternalLinks []ExternalLink `json:"externalLinks" validate:"dive"`
	CoverImage    *CoverImage    `json:"coverImage"`
}

// FuzzyDate is a partial date; any component may be unknown
type FuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

// MediaTitle holds the title variants requested by the query
type MediaTitle struct {
	Native *string `json:"native"`
}

// ExternalLink is a categorized link attached to a media entry
type ExternalLink struct {
	URL  string `json:"url" validate:"required"`
	Type string `json:"type" validate:"required"`
}

// CoverImage holds the cover art URLs requested by the query
type CoverImage struct {
	ExtraLarge *string `json:"extraLarge"`
}

// PageEnvelope is one fetched page. HasNextPage false ends pagination even when
// Media is not empty.
type PageEnvelope struct {
	Media       []Media `json:"media" validate:"required,dive"`
	HasNextPage bool    `json:"hasNextPage"`
}

// Complete reports whether year, month and day are all known
func (d FuzzyDate) Complete() bool {
	return d.Year != nil && d.Month != nil && d.Day != nil
}

// Civil returns the date components when the date is complete
func (d FuzzyDate) Civil() (year, month, day int, ok bool) {
	if !d.Complete() {
		return 0, 0, 0, false
	}
	return *d.Year, *d.Month, *d.Day, true
}

// NativeTitle returns the native title or an empty string
func (m Media) NativeTitle() string {
	if m.Title.Native == nil {
		return ""
	}
	return *m.Title.Native
}

// CoverURL returns the extra large cover image URL or an empty string
func (m Media) CoverURL() string {
	if m.CoverImage == nil || m.CoverImage.ExtraLarge == nil {
		return ""
	}
	return *m.CoverImage.ExtraLarge
}

// LinksOfType returns the external links with the given type, in order
func (m Media) LinksOfType(linkType string) []ExternalLink {
	var links []ExternalLink
	for _, l := range m.ExternalLinks {
		if l.Type == linkType {
			links = append(links, l)
		}
	}
	return links
}

// graphQLRequest is the POST body sent to the endpoint
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// mediaResponse is the full response envelope. Data is left unvalidated at this
// level so that a missing payload can be told apart from a malformed one.
type mediaResponse struct {
	Data   *pageData       `json:"data"`
	Errors json.RawMessage `json:"errors,omitempty"`
}

type pageData struct {
	Page *page `json:"Page" validate:"required"`
}

type page struct {
	Media    []Media   `json:"media" validate:"required,dive"`
	PageInfo *pageInfo `json:"pageInfo" validate:"required"`
}

type pageInfo struct {
	HasNextPage *bool `json:"hasNextPage" validate:"required"`
}

// graphQLError is the subset of an error entry worth surfacing
type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
