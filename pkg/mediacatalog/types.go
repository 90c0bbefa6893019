package mediacatalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Fields holds the raw attributes of a request payload or the extra
// attributes of a stored record, keyed by their JSON name.
type Fields map[string]json.RawMessage

// Has reports whether the attribute is present, including explicit nulls.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

func (f Fields) clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Year is kept as text. It decodes from any JSON scalar.
type Year string

func (y *Year) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*y = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*y = Year(s)
		return nil
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*y = Year(b)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("year must be a scalar value: %w", err)
	}
	*y = Year(n.String())
	return nil
}

// Rating is a review score. It decodes from a JSON number or a numeric string.
type Rating float64

func (r *Rating) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*r = 0
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("rate must be numeric: %w", err)
		}
		*r = Rating(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("rate must be numeric: %w", err)
	}
	*r = Rating(f)
	return nil
}

// MediaEntry is one catalog record.
type MediaEntry struct {
	ID        string
	Title     string
	Year      Year
	Type      string
	PosterURL string
	// Category is nil when the entry has no category attribute at all.
	Category  *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Reviews   []Review
	// Extra holds caller supplied attributes without a first-class field.
	Extra Fields
}

// Review is a rating and comment nested under a MediaEntry.
type Review struct {
	ID   string
	Rate Rating
	// RateText holds the rate as stored when it was a JSON string, so it is
	// written back as a string. Empty for numeric rates.
	RateText  string
	Comment   string
	CreatedAt time.Time
	// UpdatedAt stays nil until the review is modified.
	UpdatedAt *time.Time
	Extra     Fields
}

// Collection is the full ordered set of entries, the unit of persistence.
type Collection []MediaEntry

// JSON names of first-class attributes. The names follow the original
// catalog file format so existing files load unchanged.
const (
	KeyEntryID   = "imdbID"
	KeyTitle     = "Title"
	KeyYear      = "Year"
	KeyType      = "Type"
	KeyPoster    = "Poster"
	KeyCategory  = "category"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
	KeyReviews   = "reviews"

	KeyReviewID = "_id"
	KeyRate     = "rate"
	KeyComment  = "comment"
)

var entryKeys = map[string]bool{
	KeyEntryID: true, KeyTitle: true, KeyYear: true, KeyType: true, KeyPoster: true,
	KeyCategory: true, KeyCreatedAt: true, KeyUpdatedAt: true, KeyReviews: true,
}

var reviewKeys = map[string]bool{
	KeyReviewID: true, KeyRate: true, KeyComment: true, KeyCreatedAt: true, KeyUpdatedAt: true,
}

type entryDocument struct {
	ID        string    `json:"imdbID"`
	Title     string    `json:"Title"`
	Year      Year      `json:"Year"`
	Type      string    `json:"Type"`
	PosterURL string    `json:"Poster"`
	Category  *string   `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Reviews   []Review  `json:"reviews"`
}

type reviewDocument struct {
	ID        string          `json:"_id"`
	Rate      json.RawMessage `json:"rate"`
	Comment   string          `json:"comment"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

func (e MediaEntry) MarshalJSON() ([]byte, error) {
	reviews := e.Reviews
	if reviews == nil {
		reviews = []Review{}
	}
	return marshalWithExtra(entryDocument{
		ID:        e.ID,
		Title:     e.Title,
		Year:      e.Year,
		Type:      e.Type,
		PosterURL: e.PosterURL,
		Category:  e.Category,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		Reviews:   reviews,
	}, e.Extra)
}

func (e *MediaEntry) UnmarshalJSON(b []byte) error {
	var doc entryDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	extra, err := extraFields(b, entryKeys)
	if err != nil {
		return err
	}
	if doc.Reviews == nil {
		doc.Reviews = []Review{}
	}
	*e = MediaEntry{
		ID:        doc.ID,
		Title:     doc.Title,
		Year:      doc.Year,
		Type:      doc.Type,
		PosterURL: doc.PosterURL,
		Category:  doc.Category,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Reviews:   doc.Reviews,
		Extra:     extra,
	}
	return nil
}

func (r Review) MarshalJSON() ([]byte, error) {
	var rate any = r.Rate
	if r.RateText != "" {
		rate = r.RateText
	}
	rawRate, err := json.Marshal(rate)
	if err != nil {
		return nil, err
	}
	return marshalWithExtra(reviewDocument{
		ID:        r.ID,
		Rate:      rawRate,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, r.Extra)
}

func (r *Review) UnmarshalJSON(b []byte) error {
	var doc reviewDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	extra, err := extraFields(b, reviewKeys)
	if err != nil {
		return err
	}
	var rate Rating
	if len(doc.Rate) > 0 {
		if err := json.Unmarshal(doc.Rate, &rate); err != nil {
			return err
		}
	}
	*r = Review{
		ID:        doc.ID,
		Rate:      rate,
		RateText:  quotedText(doc.Rate),
		Comment:   doc.Comment,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Extra:     extra,
	}
	return nil
}

// marshalWithExtra encodes doc and folds extra attributes into the same
// object. First-class attributes win over extras with the same name.
func marshalWithExtra(doc any, extra Fields) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	merged := make(map[string]json.RawMessage, len(extra)+10)
	for k, v := range extra {
		merged[k] = v
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(b, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func extraFields(b []byte, known map[string]bool) (Fields, error) {
	var all Fields
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	var extra Fields
	for k, v := range all {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(Fields)
		}
		extra[k] = v
	}
	return extra, nil
}
