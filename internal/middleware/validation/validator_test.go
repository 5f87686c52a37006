package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limits = Limits{DefaultLimit: 10, MaxLimit: 100}

func TestParsePageDefaults(t *testing.T) {
	limit, skip, err := ParsePage("", "", limits)
	require.NoError(t, err)
	assert.Equal(t, int64(10), limit)
	assert.Equal(t, int64(0), skip)
}

func TestParsePageRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		limit string
		skip  string
	}{
		{"non-integer limit", "ten", ""},
		{"zero limit", "0", ""},
		{"negative limit", "-3", ""},
		{"limit above max", "101", ""},
		{"non-integer skip", "5", "1.5"},
		{"negative skip", "5", "-1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParsePage(tc.limit, tc.skip, limits)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestParsePageAcceptsMaxLimit(t *testing.T) {
	limit, skip, err := ParsePage("100", "40", limits)
	require.NoError(t, err)
	assert.Equal(t, int64(100), limit)
	assert.Equal(t, int64(40), skip)
}

func TestCheckSearch(t *testing.T) {
	assert.NoError(t, CheckSearch("", 8))
	assert.NoError(t, CheckSearch("12345678", 8))
	assert.ErrorIs(t, CheckSearch("123456789", 8), ErrInvalidParameter)
	assert.ErrorIs(t, CheckSearch("a\x00b", 8), ErrInvalidParameter)
	assert.NoError(t, CheckSearch(strings.Repeat("x", 500), 0))
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{MaxSearchLength: 8}))
	app.All("/*", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func TestMiddlewareRejectsLongSearch(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest("GET", "/podcasts?search=waytoolongsearch", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = newApp().Test(httptest.NewRequest("GET", "/podcasts?search=short", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestMiddlewareChecksContentTypeOnWrites(t *testing.T) {
	req := httptest.NewRequest("POST", "/podcasts", strings.NewReader("x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	req = httptest.NewRequest("POST", "/podcasts", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp, err = newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
