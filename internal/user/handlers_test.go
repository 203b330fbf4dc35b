package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

func TestCreateAddressRequiresAuth(t *testing.T) {
	t.Parallel()
	h := &Handler{Q: store.New(nil), Validator: validator.New()}

	req := httptest.NewRequest(http.MethodPost, "/addresses", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.CreateAddress(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAddressValidation(t *testing.T) {
	t.Parallel()
	h := &Handler{Q: store.New(nil), Validator: validator.New()}
	userID := store.UUIDString(store.NewUUID())

	cases := []struct {
		name string
		body string
	}{
		{"empty payload", `{}`},
		{"bad pincode", `{"label":"Home","line1":"12 MG Road","city":"Bengaluru","pincode":"56","lat":12.97,"lon":77.59}`},
		{"bad latitude", `{"label":"Home","line1":"12 MG Road","city":"Bengaluru","pincode":"560001","lat":123.0,"lon":77.59}`},
		{"missing city", `{"label":"Home","line1":"12 MG Road","pincode":"560001","lat":12.97,"lon":77.59}`},
		{"not json", `not-json`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/addresses", strings.NewReader(tc.body))
			req = req.WithContext(common.WithUserID(req.Context(), userID))
			rec := httptest.NewRecorder()
			h.CreateAddress(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Contains(t, body, "error")
		})
	}
}
