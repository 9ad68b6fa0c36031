package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/behavior"
	"github.com/mauzenfan/safety-backend-go/internal/repository"
	"github.com/mauzenfan/safety-backend-go/internal/service"
	"github.com/mauzenfan/safety-backend-go/internal/spatial"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFail_StatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("subject 9: %w", repository.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: no points", service.ErrInvalidUpdate), http.StatusBadRequest},
		{fmt.Errorf("%w: latitude 95 out of range", spatial.ErrInvalidCoordinate), http.StatusBadRequest},
		{behavior.ErrInsufficientData, http.StatusBadRequest},
		{service.ErrWeatherDisabled, http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			fail(c, tt.err, "do things")

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.Contains(t, w.Body.String(), "Failed to do things")
				assert.NotContains(t, w.Body.String(), "disk full")
				assert.Len(t, c.Errors, 1)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	for param, ok := range map[string]bool{"12": true, "0": false, "-3": false, "x": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: param}}

		id, got := parseID(c, "id", "subject")
		assert.Equal(t, ok, got, param)
		if ok {
			assert.Equal(t, int64(12), id)
		} else {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}
