package domain

// HistogramSize is the number of star buckets on a ratings page.
const HistogramSize = 10

// HistogramBucket pairs a star rating with the number of votes it received.
type HistogramBucket struct {
	Rating    int   `json:"rating"`
	VoteCount int64 `json:"voteCount"`
}

// Histogram holds one bucket per star rating, lowest rating first.
type Histogram [HistogramSize]HistogramBucket

// TotalVotes sums the vote counts of every bucket.
func (h Histogram) TotalVotes() int64 {
	var total int64
	for _, b := range h {
		total += b.VoteCount
	}
	return total
}
