package omdb

// detailResponse represents the OMDb API response for a single title lookup.
type detailResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Director   string `json:"Director"`
	Plot       string `json:"Plot"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
	Type       string `json:"Type"`
	Response   string `json:"Response"`
	Error      string `json:"Error,omitempty"`
}

// searchResponse represents the OMDb API response for a title search.
type searchResponse struct {
	Search   []searchItem `json:"Search"`
	Response string       `json:"Response"`
	Error    string       `json:"Error,omitempty"`
}

type searchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
}

// SearchResult is a single candidate from a title search, awaiting user
// confirmation before import.
type SearchResult struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	ImdbID string `json:"imdbId"`
}

// MovieDetail is the full record for one title. Year and Rating are kept as
// raw strings; the importer decides how leniently to parse them.
type MovieDetail struct {
	Title    string `json:"title"`
	Director string `json:"director"`
	Year     string `json:"year"`
	Rating   string `json:"rating"`
	ImdbID   string `json:"imdbId"`
	Plot     string `json:"plot"`
}
