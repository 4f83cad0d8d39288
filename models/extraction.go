package models

// ExtractionStatus is the tri-state outcome of a field extractor.
type ExtractionStatus int

const (
	ExtractNotFound ExtractionStatus = iota
	ExtractMatched
	ExtractAmbiguous
)

// Extraction is the result of running one field extractor over a turn.
// Simple fields populate Value; the datetime extractor populates Date
// and/or Clock (a partial match is still Matched — the dialogue asks
// for the missing half). Ambiguous results carry the competing
// candidates for the escalation resolver.
type Extraction struct {
	Status     ExtractionStatus
	Value      string
	Date       string
	Clock      string
	Candidates []string
}

func NotFound() Extraction {
	return Extraction{Status: ExtractNotFound}
}

func Matched(value string) Extraction {
	return Extraction{Status: ExtractMatched, Value: value}
}

func MatchedDateTime(date, clock string) Extraction {
	return Extraction{Status: ExtractMatched, Date: date, Clock: clock}
}

func Ambiguous(candidates ...string) Extraction {
	return Extraction{Status: ExtractAmbiguous, Candidates: candidates}
}
