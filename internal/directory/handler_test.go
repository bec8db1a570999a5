package directory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return NewHandler(NewService(seedDirectory(t)), nil).Routes()
}

func TestSearchDoctorsEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors?specialty=Cardiology", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Doctors []*Doctor `json:"doctors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Doctors, 2)
}

func TestSearchDoctorsEmptyResultIsEmptyList(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors?q=nonexistent", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"doctors":[]}`, rec.Body.String())
}

func TestGetDoctorEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors/doc-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var d Doctor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "Amani Mushi", d.FullName)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaceEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hospitals?city=Mwanza", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var hospitals struct {
		Hospitals []*Hospital `json:"hospitals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hospitals))
	require.Len(t, hospitals.Hospitals, 1)
	assert.Equal(t, "Bugando Medical Centre", hospitals.Hospitals[0].Name)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pharmacies", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/labs?q=lancet", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var labs struct {
		Labs []*Lab `json:"labs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &labs))
	assert.Len(t, labs.Labs, 1)
}
