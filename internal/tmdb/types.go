package tmdb

// rawItem is a single record as TMDB returns it from the search,
// discover and recommendations endpoints. Movies carry
// title/release_date, TV shows carry name/first_air_date.
type rawItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   *string `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	Popularity   float64 `json:"popularity"`
}

// listResponse is the paginated list envelope shared by the search,
// discover and recommendations endpoints.
type listResponse struct {
	Page         int       `json:"page"`
	Results      []rawItem `json:"results"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
}
