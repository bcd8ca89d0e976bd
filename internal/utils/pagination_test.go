package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOn(t *testing.T, target string) Pagination {
	t.Helper()

	var pg Pagination
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		pg = ParsePagination(c)
		return c.SendStatus(http.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	return pg
}

func TestParsePaginationDefaults(t *testing.T) {
	pg := parseOn(t, "/")
	assert.Equal(t, 1, pg.Page)
	assert.Equal(t, 10, pg.Limit)
	assert.Equal(t, 0, pg.Offset)
}

func TestParsePaginationExplicit(t *testing.T) {
	pg := parseOn(t, "/?page=3&limit=25")
	assert.Equal(t, 3, pg.Page)
	assert.Equal(t, 25, pg.Limit)
	assert.Equal(t, 50, pg.Offset)
}

func TestParsePaginationClamps(t *testing.T) {
	pg := parseOn(t, "/?page=-1&limit=5000")
	assert.Equal(t, 1, pg.Page)
	assert.Equal(t, 100, pg.Limit)

	pg = parseOn(t, "/?page=abc&limit=0")
	assert.Equal(t, 1, pg.Page)
	assert.Equal(t, 10, pg.Limit)
}

func TestPaginationMeta(t *testing.T) {
	meta := Pagination{Page: 2, Limit: 10}.Meta(35)
	assert.Equal(t, 2, meta["current_page"])
	assert.Equal(t, int64(4), meta["total_pages"])
	assert.Equal(t, int64(35), meta["total_items"])
	assert.Equal(t, true, meta["has_next"])
	assert.Equal(t, true, meta["has_prev"])

	meta = Pagination{Page: 4, Limit: 10}.Meta(35)
	assert.Equal(t, false, meta["has_next"])
}
