package mediacatalog

import (
	"bytes"
	"encoding/json"
	"sort"
)

// EntryPatch is the caller controlled part of a MediaEntry. Identifier,
// timestamps, poster and reviews are owned by the catalog and have no field
// here.
type EntryPatch struct {
	Title         *string
	Year          *Year
	Type          *string
	Category      *string
	ClearCategory bool
	Extra         Fields
}

// ReviewPatch is the caller controlled part of a Review
type ReviewPatch struct {
	Rate *Rating
	// RateText is the rate as sent when it arrived as a JSON string
	RateText string
	Comment  *string
	Extra    Fields
}

var protectedEntryKeys = map[string]bool{
	KeyEntryID:   true,
	KeyCreatedAt: true,
	KeyUpdatedAt: true,
	KeyReviews:   true,
	KeyPoster:    true,
}

var protectedReviewKeys = map[string]bool{
	KeyReviewID:  true,
	KeyCreatedAt: true,
	KeyUpdatedAt: true,
}

// ParseEntryPatch converts raw payload attributes into an EntryPatch.
// Protected attributes are dropped silently.
func ParseEntryPatch(fields Fields) (EntryPatch, error) {
	var p EntryPatch
	var errs []FieldError
	for _, k := range sortedKeys(fields) {
		v := fields[k]
		switch {
		case protectedEntryKeys[k]:
			continue
		case k == KeyTitle:
			p.Title = decodeText(k, v, &errs)
		case k == KeyType:
			p.Type = decodeText(k, v, &errs)
		case k == KeyYear:
			if y := decodeText(k, v, &errs); y != nil {
				year := Year(*y)
				p.Year = &year
			}
		case k == KeyCategory:
			if string(v) == "null" {
				p.ClearCategory = true
				continue
			}
			p.Category = decodeText(k, v, &errs)
		default:
			if p.Extra == nil {
				p.Extra = make(Fields)
			}
			p.Extra[k] = v
		}
	}
	if len(errs) > 0 {
		return EntryPatch{}, &ValidationError{Fields: errs}
	}
	return p, nil
}

// ParseReviewPatch converts raw payload attributes into a ReviewPatch
func ParseReviewPatch(fields Fields) (ReviewPatch, error) {
	var p ReviewPatch
	var errs []FieldError
	for _, k := range sortedKeys(fields) {
		v := fields[k]
		switch {
		case protectedReviewKeys[k]:
			continue
		case k == KeyRate:
			var r Rating
			if err := json.Unmarshal(v, &r); err != nil {
				errs = append(errs, invalidField(k, "Rate must be a number"))
				continue
			}
			p.Rate = &r
			p.RateText = quotedText(v)
		case k == KeyComment:
			p.Comment = decodeText(k, v, &errs)
		default:
			if p.Extra == nil {
				p.Extra = make(Fields)
			}
			p.Extra[k] = v
		}
	}
	if len(errs) > 0 {
		return ReviewPatch{}, &ValidationError{Fields: errs}
	}
	return p, nil
}

// Apply merges the patch over e and returns the result. e is not modified.
func (p EntryPatch) Apply(e MediaEntry) MediaEntry {
	out := e
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Year != nil {
		out.Year = *p.Year
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.ClearCategory {
		out.Category = nil
	} else if p.Category != nil {
		c := *p.Category
		out.Category = &c
	}
	out.Extra = mergeExtra(e.Extra, p.Extra)
	return out
}

// Apply merges the patch over r and returns the result. r is not modified.
func (p ReviewPatch) Apply(r Review) Review {
	out := r
	if p.Rate != nil {
		out.Rate = *p.Rate
		out.RateText = p.RateText
	}
	if p.Comment != nil {
		out.Comment = *p.Comment
	}
	out.Extra = mergeExtra(r.Extra, p.Extra)
	return out
}

func mergeExtra(base, overlay Fields) Fields {
	if len(overlay) == 0 {
		return base
	}
	out := base.clone()
	if out == nil {
		out = make(Fields, len(overlay))
	}
	for k, v := range overlay {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// decodeText accepts any JSON scalar and keeps it as text. Numbers keep
// their literal form and null becomes the empty string.
func decodeText(key string, raw json.RawMessage, errs *[]FieldError) *string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		*errs = append(*errs, invalidField(key, key+" must be a scalar value"))
		return nil
	}
	var s string
	switch t := v.(type) {
	case nil:
	case string:
		s = t
	case bool, float64:
		s = string(bytes.TrimSpace(raw))
	default:
		*errs = append(*errs, invalidField(key, key+" must be a scalar value"))
		return nil
	}
	return &s
}

// quotedText returns the content of raw when it is a JSON string
func quotedText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func invalidField(key, msg string) FieldError {
	return FieldError{Param: key, Msg: msg, Location: "body"}
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
