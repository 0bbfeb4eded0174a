package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testCases := []struct {
		name       string
		body       string
		expectedOK bool
	}{
		{name: "valid body", body: `{"laneCode":"A1"}`, expectedOK: true},
		{name: "malformed body", body: `{"laneCode":`},
		{name: "oversized body", body: `{"laneCode":"` + strings.Repeat("x", maxBodyBytes) + `"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			var dst struct {
				LaneCode string `json:"laneCode"`
			}
			// when
			ok := DecodeJSON(rr, req, logger, &dst)
			// then
			require.Equal(t, tc.expectedOK, ok)
			if ok {
				assert.Equal(t, "A1", dst.LaneCode)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error":"Invalid request body"}`, rr.Body.String())
		})
	}
}

func TestRespondValidationError(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	payload := struct {
		LaneCode    string `validate:"required,len=2"`
		Description string `validate:"required"`
	}{LaneCode: "A"}
	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(validator.New().Struct(payload), &validationErrors))
	rr := httptest.NewRecorder()

	// when
	RespondValidationError(rr, logger, validationErrors)

	// then
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"validation_errors":{"LaneCode":"failed on rule: len","Description":"failed on rule: required"}}`, rr.Body.String())
}
