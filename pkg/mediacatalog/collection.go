package mediacatalog

import (
	"time"
)

// maxIDAttempts bounds how often a colliding id is regenerated
const maxIDAttempts = 8

// List returns all entries, or only those whose category equals the filter
// when it is non-empty. Entries without a category never match a filter.
func (c Collection) List(category string) Collection {
	out := make(Collection, 0, len(c))
	for _, e := range c {
		if category != "" && (e.Category == nil || *e.Category != category) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (c Collection) indexOf(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// GetByID returns the entry with the given id
func (c Collection) GetByID(id string) (MediaEntry, error) {
	i := c.indexOf(id)
	if i < 0 {
		return MediaEntry{}, ErrEntryNotFound
	}
	return c[i], nil
}

// Create validates fields, stamps a new entry and appends it
func (c Collection) Create(fields Fields, newID IDGenerator, now time.Time) (Collection, MediaEntry, error) {
	if err := EntrySchema.Validate(fields); err != nil {
		return c, MediaEntry{}, err
	}
	patch, err := ParseEntryPatch(fields)
	if err != nil {
		return c, MediaEntry{}, err
	}
	id, err := uniqueID(newID, func(id string) bool { return c.indexOf(id) >= 0 })
	if err != nil {
		return c, MediaEntry{}, err
	}

	entry := patch.Apply(MediaEntry{
		ID:        id,
		PosterURL: "",
		CreatedAt: now,
		UpdatedAt: now,
		Reviews:   []Review{},
	})

	out := make(Collection, 0, len(c)+1)
	out = append(out, c...)
	out = append(out, entry)
	return out, entry, nil
}

// Update merges fields over an existing entry in place, keeping its position
func (c Collection) Update(id string, fields Fields, now time.Time) (Collection, MediaEntry, error) {
	if err := EntrySchema.Validate(fields); err != nil {
		return c, MediaEntry{}, err
	}
	patch, err := ParseEntryPatch(fields)
	if err != nil {
		return c, MediaEntry{}, err
	}
	i := c.indexOf(id)
	if i < 0 {
		return c, MediaEntry{}, ErrEntryNotFound
	}

	updated := patch.Apply(c[i])
	updated.UpdatedAt = now
	return c.replace(i, updated), updated, nil
}

// Remove drops the entry with the given id, preserving the order of the rest
func (c Collection) Remove(id string) (Collection, error) {
	i := c.indexOf(id)
	if i < 0 {
		return c, ErrEntryNotFound
	}
	out := make(Collection, 0, len(c)-1)
	out = append(out, c[:i]...)
	out = append(out, c[i+1:]...)
	return out, nil
}

// SetPoster records the public URL of an uploaded poster
func (c Collection) SetPoster(id, url string, now time.Time) (Collection, error) {
	i := c.indexOf(id)
	if i < 0 {
		return c, ErrEntryNotFound
	}
	updated := c[i]
	updated.PosterURL = url
	updated.UpdatedAt = now
	return c.replace(i, updated), nil
}

// ListReviews returns the reviews of an entry in insertion order
func (c Collection) ListReviews(id string) ([]Review, error) {
	i := c.indexOf(id)
	if i < 0 {
		return nil, ErrEntryNotFound
	}
	reviews := c[i].Reviews
	if reviews == nil {
		reviews = []Review{}
	}
	return reviews, nil
}

// GetReview returns one review of an entry
func (c Collection) GetReview(id, reviewID string) (Review, error) {
	reviews, err := c.ListReviews(id)
	if err != nil {
		return Review{}, err
	}
	j := reviewIndex(reviews, reviewID)
	if j < 0 {
		return Review{}, ErrReviewNotFound
	}
	return reviews[j], nil
}

// AddReview validates fields and appends a new review to an entry
func (c Collection) AddReview(id string, fields Fields, newID IDGenerator, now time.Time) (Collection, Review, error) {
	if err := ReviewSchema.Validate(fields); err != nil {
		return c, Review{}, err
	}
	patch, err := ParseReviewPatch(fields)
	if err != nil {
		return c, Review{}, err
	}
	i := c.indexOf(id)
	if i < 0 {
		return c, Review{}, ErrEntryNotFound
	}

	entry := c[i]
	reviewID, err := uniqueID(newID, func(rid string) bool { return reviewIndex(entry.Reviews, rid) >= 0 })
	if err != nil {
		return c, Review{}, err
	}
	review := patch.Apply(Review{ID: reviewID, CreatedAt: now})

	reviews := make([]Review, 0, len(entry.Reviews)+1)
	reviews = append(reviews, entry.Reviews...)
	entry.Reviews = append(reviews, review)
	return c.replace(i, entry), review, nil
}

// UpdateReview merges fields over an existing review and stamps updatedAt.
// A missing review is reported as ErrReviewNotFound.
func (c Collection) UpdateReview(id, reviewID string, fields Fields, now time.Time) (Collection, Review, error) {
	if err := ReviewSchema.Validate(fields); err != nil {
		return c, Review{}, err
	}
	patch, err := ParseReviewPatch(fields)
	if err != nil {
		return c, Review{}, err
	}
	i := c.indexOf(id)
	if i < 0 {
		return c, Review{}, ErrEntryNotFound
	}
	entry := c[i]
	j := reviewIndex(entry.Reviews, reviewID)
	if j < 0 {
		return c, Review{}, ErrReviewNotFound
	}

	review := patch.Apply(entry.Reviews[j])
	stamp := now
	review.UpdatedAt = &stamp

	reviews := make([]Review, len(entry.Reviews))
	copy(reviews, entry.Reviews)
	reviews[j] = review
	entry.Reviews = reviews
	return c.replace(i, entry), review, nil
}

// RemoveReview filters the review out of an entry. An unknown review id on a
// known entry leaves the reviews unchanged.
func (c Collection) RemoveReview(id, reviewID string) (Collection, error) {
	i := c.indexOf(id)
	if i < 0 {
		return c, ErrEntryNotFound
	}
	entry := c[i]
	reviews := make([]Review, 0, len(entry.Reviews))
	for _, r := range entry.Reviews {
		if r.ID != reviewID {
			reviews = append(reviews, r)
		}
	}
	entry.Reviews = reviews
	return c.replace(i, entry), nil
}

// replace returns a copy of c with position i swapped for e
func (c Collection) replace(i int, e MediaEntry) Collection {
	out := make(Collection, len(c))
	copy(out, c)
	out[i] = e
	return out
}

func reviewIndex(reviews []Review, reviewID string) int {
	for j := range reviews {
		if reviews[j].ID == reviewID {
			return j
		}
	}
	return -1
}

func uniqueID(newID IDGenerator, taken func(string) bool) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := newID()
		if id != "" && !taken(id) {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}
