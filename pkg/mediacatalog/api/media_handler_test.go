package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/media-catalog/pkg/mediacatalog"
	memoryblob "github.com/tendant/media-catalog/pkg/mediacatalog/blob/memory"
	"github.com/tendant/media-catalog/pkg/mediacatalog/store/memory"
)

type testEnv struct {
	router  chi.Router
	records *memory.Store
	blobs   *memoryblob.Backend
}

// setupMediaHandlerTest creates a router over in-memory stores
func setupMediaHandlerTest(t *testing.T) *testEnv {
	records := memory.New()
	blobs := memoryblob.New()

	service, err := mediacatalog.New(
		mediacatalog.WithRecordStore(records),
		mediacatalog.WithBlobStore(blobs),
	)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Mount("/media", NewMediaHandler(service).Routes())
	return &testEnv{router: router, records: records, blobs: blobs}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) list(t *testing.T, target string) []map[string]any {
	t.Helper()
	w := e.do(t, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *testEnv) createEntry(t *testing.T, body map[string]any) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/media", body)
	require.Equal(t, http.StatusCreated, w.Code)
	entries := e.list(t, "/media")
	require.NotEmpty(t, entries)
	return entries[len(entries)-1]["imdbID"].(string)
}

func TestMediaHandler_CreateAndList(t *testing.T) {
	env := setupMediaHandlerTest(t)

	w := env.do(t, http.MethodPost, "/media", map[string]any{"Title": "Dune", "Year": "2021", "Type": "movie"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Body.String())

	entries := env.list(t, "/media")
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "Dune", entry["Title"])
	assert.Equal(t, "2021", entry["Year"])
	assert.Equal(t, "movie", entry["Type"])
	assert.Equal(t, "", entry["Poster"])
	assert.Equal(t, []any{}, entry["reviews"])
	assert.NotEmpty(t, entry["imdbID"])
	assert.NotEmpty(t, entry["createdAt"])
	assert.Equal(t, entry["createdAt"], entry["updatedAt"])
}

func TestMediaHandler_CreateMissingFields(t *testing.T) {
	env := setupMediaHandlerTest(t)

	w := env.do(t, http.MethodPost, "/media", map[string]any{"Title": "Dune"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []mediacatalog.FieldError{
		{Param: "Year", Msg: "Year is required!", Location: "body"},
		{Param: "Type", Msg: "Type is required!", Location: "body"},
	}, resp.Errors)

	assert.Empty(t, env.list(t, "/media"))
	assert.Equal(t, 0, env.records.Saves())
}

func TestMediaHandler_CreateScalarFields(t *testing.T) {
	env := setupMediaHandlerTest(t)

	w := env.do(t, http.MethodPost, "/media", `{"Title":2001,"Year":"1968","Type":"movie"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, "/media", `{"Title":"Dune","Year":"2021","Type":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	entries := env.list(t, "/media")
	require.Len(t, entries, 2)
	assert.Equal(t, "2001", entries[0]["Title"])
	assert.Equal(t, "true", entries[1]["Type"])
}

func TestMediaHandler_MalformedBody(t *testing.T) {
	env := setupMediaHandlerTest(t)

	for _, body := range []string{`{"Title":`, `["Dune"]`} {
		w := env.do(t, http.MethodPost, "/media", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), `"param":"body"`)
	}
	assert.Equal(t, 0, env.records.Saves())
}

func TestMediaHandler_GetMedia(t *testing.T) {
	env := setupMediaHandlerTest(t)
	id := env.createEntry(t, map[string]any{"Title": "Dune", "Year": 2021, "Type": "movie", "Plot": "Spice"})

	w := env.do(t, http.MethodGet, "/media/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, id, entry["imdbID"])
	assert.Equal(t, "2021", entry["Year"])
	assert.Equal(t, "Spice", entry["Plot"])

	w = env.do(t, http.MethodGet, "/media/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestMediaHandler_UpdateMedia(t *testing.T) {
	env := setupMediaHandlerTest(t)
	id := env.createEntry(t, map[string]any{"Title": "Dune", "Year": "2021", "Type": "movie"})

	t.Run("merges and returns collection", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/media/"+id, map[string]any{
			"Title": "Dune: Part One", "Year": "2021", "Type": "movie", "category": "scifi",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var c []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
		require.Len(t, c, 1)
		assert.Equal(t, "Dune: Part One", c[0]["Title"])
		assert.Equal(t, "scifi", c[0]["category"])
	})

	t.Run("protected keys are ignored", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/media/"+id, map[string]any{
			"Title": "Dune", "Year": "2021", "Type": "movie",
			"imdbID": "hijacked", "Poster": "http://evil", "reviews": []any{"x"},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var c []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
		assert.Equal(t, id, c[0]["imdbID"])
		assert.Equal(t, "", c[0]["Poster"])
		assert.Equal(t, []any{}, c[0]["reviews"])
	})

	t.Run("missing fields", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/media/"+id, map[string]any{"Title": "Dune"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown entry", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/media/unknown", map[string]any{"Title": "Dune", "Year": "2021", "Type": "movie"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMediaHandler_DeleteMedia(t *testing.T) {
	env := setupMediaHandlerTest(t)
	first := env.createEntry(t, map[string]any{"Title": "Dune", "Year": "2021", "Type": "movie"})
	second := env.createEntry(t, map[string]any{"Title": "Arrival", "Year": "2016", "Type": "movie"})

	saves := env.records.Saves()
	w := env.do(t, http.MethodDelete, "/media/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, saves, env.records.Saves())
	assert.Len(t, env.list(t, "/media"), 2)

	w = env.do(t, http.MethodDelete, "/media/"+first, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var c []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	require.Len(t, c, 1)
	assert.Equal(t, second, c[0]["imdbID"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/media/"+first, nil).Code)
}

func TestMediaHandler_CategoryFilter(t *testing.T) {
	env := setupMediaHandlerTest(t)
	env.createEntry(t, map[string]any{"Title": "Dune", "Year": "2021", "Type": "movie", "category": "scifi"})
	env.createEntry(t, map[string]any{"Title": "Heat", "Year": "1995", "Type": "movie", "category": "crime"})
	env.createEntry(t, map[string]any{"Title": "Alien", "Year": "1979", "Type": "movie", "category": "scifi"})
	env.createEntry(t, map[string]any{"Title": "Untitled", "Year": "2000", "Type": "movie"})

	entries := env.list(t, "/media?category=scifi")
	require.Len(t, entries, 2)
	assert.Equal(t, "Dune", entries[0]["Title"])
	assert.Equal(t, "Alien", entries[1]["Title"])

	assert.Empty(t, env.list(t, "/media?category=drama"))
	assert.Len(t, env.list(t, "/media"), 4)
}

func TestMediaHandler_Reviews(t *testing.T) {
	env := setupMediaHandlerTest(t)
	id := env.createEntry(t, map[string]any{"Title": "Dune", "Year": "2021", "Type": "movie"})

	w := env.do(t, http.MethodPost, "/media/"+id+"/reviews", map[string]any{"rate": 5, "comment": "great"})
	require.Equal(t, http.StatusCreated, w.Code)
	var c []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	reviews := c[0]["reviews"].([]any)
	require.Len(t, reviews, 1)
	review := reviews[0].(map[string]any)
	reviewID := review["_id"].(string)
	assert.NotEmpty(t, reviewID)
	assert.Equal(t, float64(5), review["rate"])
	assert.NotContains(t, review, "updatedAt")

	t.Run("list and get", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/media/"+id+"/reviews", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list, 1)

		w = env.do(t, http.MethodGet, "/media/"+id+"/reviews/"+reviewID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"comment":"great"`)

		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/media/"+id+"/reviews/unknown", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/media/unknown/reviews", nil).Code)
	})

	t.Run("validation", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/media/"+id+"/reviews", map[string]any{"rate": 3})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Comment is required!")

		w = env.do(t, http.MethodPost, "/media/unknown/reviews", map[string]any{"rate": 3, "comment": "meh"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/media/"+id+"/reviews/"+reviewID, map[string]any{"rate": 4, "comment": "good", "_id": "hijacked"})
		require.Equal(t, http.StatusOK, w.Code)
		var c []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
		review := c[0]["reviews"].([]any)[0].(map[string]any)
		assert.Equal(t, reviewID, review["_id"])
		assert.Equal(t, float64(4), review["rate"])
		assert.Equal(t, "good", review["comment"])
		assert.Contains(t, review, "updatedAt")

		w = env.do(t, http.MethodPut, "/media/"+id+"/reviews/unknown", map[string]any{"rate": 4, "comment": "good"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/media/unknown/reviews/"+reviewID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.do(t, http.MethodDelete, "/media/"+id+"/reviews/unknown", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodDelete, "/media/"+id+"/reviews/"+reviewID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var c []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
		assert.Equal(t, []any{}, c[0]["reviews"])
	})
}

func multipartUpload(t *testing.T, field, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestMediaHandler_UploadPoster(t *testing.T) {
	env := setupMediaHandlerTest(t)
	id := env.createEntry(t, map[string]any{"Title": "Dune", "Year": "2021", "Type": "movie"})

	t.Run("stores poster and sets url", func(t *testing.T) {
		body, contentType := multipartUpload(t, PosterField, "dune.png", "image/png", []byte("poster-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/media/"+id+"/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var c []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
		poster := c[0]["Poster"].(string)
		assert.True(t, strings.HasPrefix(poster, memoryblob.URLScheme+mediacatalog.DefaultPosterFolder+"/"), poster)
		assert.True(t, strings.HasSuffix(poster, ".png"), poster)

		obj, ok := env.blobs.Get(poster)
		require.True(t, ok)
		assert.Equal(t, []byte("poster-bytes"), obj.Data)
		assert.Equal(t, "image/png", obj.MimeType)
	})

	t.Run("sniffs missing content type", func(t *testing.T) {
		body, contentType := multipartUpload(t, PosterField, "dune", "", []byte("\x89PNG\r\n\x1a\n0000"))
		req := httptest.NewRequest(http.MethodPost, "/media/"+id+"/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var c []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
		obj, ok := env.blobs.Get(c[0]["Poster"].(string))
		require.True(t, ok)
		assert.Equal(t, "image/png", obj.MimeType)
		assert.Equal(t, []byte("\x89PNG\r\n\x1a\n0000"), obj.Data)
	})

	t.Run("unknown entry", func(t *testing.T) {
		before := env.blobs.Len()
		body, contentType := multipartUpload(t, PosterField, "x.png", "image/png", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/media/unknown/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, before, env.blobs.Len())
	})

	t.Run("unknown entry without file", func(t *testing.T) {
		body, contentType := multipartUpload(t, "other", "x.png", "image/png", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/media/unknown/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("missing file", func(t *testing.T) {
		body, contentType := multipartUpload(t, "other", "x.png", "image/png", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/media/"+id+"/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Image is required!")
	})
}

type failingStore struct{}

func (failingStore) Load(context.Context) (mediacatalog.Collection, error) {
	return nil, &mediacatalog.StorageError{Backend: "test", Op: "load", Err: errors.New("disk on fire")}
}

func (failingStore) Save(context.Context, mediacatalog.Collection) error {
	return errors.New("unreachable")
}

func TestMediaHandler_StorageFailure(t *testing.T) {
	service, err := mediacatalog.New(mediacatalog.WithRecordStore(failingStore{}))
	require.NoError(t, err)
	router := chi.NewRouter()
	router.Mount("/media", NewMediaHandler(service).Routes())

	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, genericServerError, strings.TrimSpace(w.Body.String()))
	assert.NotContains(t, w.Body.String(), "disk on fire")

	// Validation is reported before the store is touched
	req = httptest.NewRequest(http.MethodPost, "/media", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
