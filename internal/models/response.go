package models

// Pair is one common word pair (bigram) and the number of times it occurs.
type Pair struct {
	Pair  string `json:"pair"`
	Count int    `json:"count"`
}

// SearchResponse is the response for GET /search.
// DidYouMean is only populated when Results is empty.
type SearchResponse struct {
	Query        string   `json:"query"`
	Results      []*Entry `json:"results"`
	DidYouMean   []string `json:"did_you_mean"`
	Frequency    int      `json:"frequency"`
	UsagePercent float64  `json:"usage_percent"`
	TotalWords   int      `json:"total_words"`
	CommonPairs  []Pair   `json:"common_pairs"`
}

// FrequencyResponse is the response for GET /frequency.
type FrequencyResponse struct {
	Query        string  `json:"query"`
	Frequency    int     `json:"frequency"`
	UsagePercent float64 `json:"usage_percent"`
	TotalWords   int     `json:"total_words"`
}

// PairsResponse is the response for GET /pairs.
type PairsResponse struct {
	Query       string `json:"query"`
	CommonPairs []Pair `json:"common_pairs"`
}

// Frequency is a frequency lookup as seen by a client. Count is nil when the
// backend response carried no usable count.
type Frequency struct {
	Count *int
}
