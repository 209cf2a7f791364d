package anilist

// PageSize is the fixed number of media requested per page
const PageSize = 50

// upcomingMoviesQuery selects Japanese theatrical releases that have not yet
// premiered, ordered by start date. Only $page varies between requests.
const upcomingMoviesQuery = `query ($page: Int) {
  Page(page: $page, perPage: 50) {
    media(
      type: ANIME
      format: MOVIE
      status: NOT_YET_RELEASED
      countryOfOrigin: "JP"
      sort: START_DATE
    ) {
      id
      siteUrl
      startDate {
        year
        month
        day
      }
      title {
        native
      }
      externalLinks {
        url
        type
      }
      coverImage {
        extraLarge
      }
    }
    pageInfo {
      hasNextPage
    }
  }
}`

func newPageRequest(page int) graphQLRequest {
	return graphQLRequest{
		Query:     upcomingMoviesQuery,
		Variables: map[string]any{"page": page},
	}
}
