package model

// SearchEnvelope is the wire form of a successful search.
type SearchEnvelope struct {
	Result bool `json:"result"`
	*SearchResponse
}

// StatisticsEnvelope is the wire form of a statistics rollup.
type StatisticsEnvelope struct {
	Result     bool        `json:"result"`
	Statistics *Statistics `json:"statistics"`
}

// ErrorEnvelope is the wire form of a rejected request.
type ErrorEnvelope struct {
	Result bool   `json:"result"`
	Error  string `json:"error"`
}
