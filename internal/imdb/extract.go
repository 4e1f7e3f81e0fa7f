package imdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Clark-Hu/trimscore/internal/domain"
)

// nextDataSelector locates the Next.js page-state script on a ratings page.
const nextDataSelector = "script#__NEXT_DATA__"

// nextData mirrors the part of the page state that leads to the histogram.
// Pointers distinguish a missing property from a zero value.
type nextData struct {
	Props *struct {
		PageProps *struct {
			ContentData *struct {
				HistogramData *struct {
					HistogramValues *[]histogramValue `json:"histogramValues"`
				} `json:"histogramData"`
			} `json:"contentData"`
		} `json:"pageProps"`
	} `json:"props"`
}

type histogramValue struct {
	Rating    *int   `json:"rating"`
	VoteCount *int64 `json:"voteCount"`
}

// ExtractHistogram reads the rating histogram embedded in a ratings page.
func ExtractHistogram(page []byte) (domain.Histogram, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return domain.Histogram{}, &ExtractError{Cause: CauseMarkup, Err: err}
	}

	sel := doc.Find(nextDataSelector)
	switch sel.Length() {
	case 0:
		return domain.Histogram{}, &ExtractError{Cause: CauseMissingBlob, Detail: nextDataSelector}
	case 1:
	default:
		return domain.Histogram{}, &ExtractError{Cause: CauseDuplicateBlob, Detail: fmt.Sprintf("%d elements", sel.Length())}
	}

	raw := strings.TrimSpace(sel.Text())
	if raw == "" {
		return domain.Histogram{}, &ExtractError{Cause: CauseMissingBlob, Detail: "empty script body"}
	}

	var data nextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return domain.Histogram{}, &ExtractError{Cause: CauseInvalidJSON, Err: err}
	}

	values, err := histogramValues(data)
	if err != nil {
		return domain.Histogram{}, err
	}
	return toHistogram(values)
}

func histogramValues(data nextData) ([]histogramValue, error) {
	missing := func(path string) error {
		return &ExtractError{Cause: CauseMissingPath, Detail: path}
	}
	switch {
	case data.Props == nil:
		return nil, missing("props")
	case data.Props.PageProps == nil:
		return nil, missing("props.pageProps")
	case data.Props.PageProps.ContentData == nil:
		return nil, missing("props.pageProps.contentData")
	case data.Props.PageProps.ContentData.HistogramData == nil:
		return nil, missing("props.pageProps.contentData.histogramData")
	case data.Props.PageProps.ContentData.HistogramData.HistogramValues == nil:
		return nil, missing("props.pageProps.contentData.histogramData.histogramValues")
	}
	return *data.Props.PageProps.ContentData.HistogramData.HistogramValues, nil
}

func toHistogram(values []histogramValue) (domain.Histogram, error) {
	malformed := func(format string, args ...interface{}) error {
		return &ExtractError{Cause: CauseMalformedHistogram, Detail: fmt.Sprintf(format, args...)}
	}

	if len(values) != domain.HistogramSize {
		return domain.Histogram{}, malformed("got %d buckets, want %d", len(values), domain.HistogramSize)
	}

	buckets := make([]domain.HistogramBucket, 0, len(values))
	for i, v := range values {
		if v.Rating == nil || v.VoteCount == nil {
			return domain.Histogram{}, malformed("bucket %d lacks rating or voteCount", i)
		}
		if *v.VoteCount < 0 {
			return domain.Histogram{}, malformed("bucket %d has negative voteCount %d", i, *v.VoteCount)
		}
		buckets = append(buckets, domain.HistogramBucket{Rating: *v.Rating, VoteCount: *v.VoteCount})
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Rating < buckets[j].Rating })

	var h domain.Histogram
	for i, b := range buckets {
		if b.Rating != i+1 {
			return domain.Histogram{}, malformed("ratings are not 1..%d", domain.HistogramSize)
		}
		h[i] = b
	}
	return h, nil
}
