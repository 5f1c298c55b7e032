package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/order-extractor/internal/testutil"
)

func TestParseItemRow_MissingColumns(t *testing.T) {
	doc := mustParse(t, "<table><tbody><tr><td>1x</td><td><b>Soup</b></td></tr></tbody></table>")
	rows := doc.FindAll("tr")
	require.Len(t, rows, 1)

	_, err := parseItemRow(4, rows[0])
	var rowErr *RowParseError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 4, rowErr.Row)
	assert.Equal(t, ColumnPrice, rowErr.Column)
}

func TestItemName_FallsBackToCellText(t *testing.T) {
	doc := mustParse(t, "<table><tr><td> Plain Salad </td></tr></table>")
	cells := doc.FindAll("td")
	require.Len(t, cells, 1)
	assert.Equal(t, "Plain Salad", itemName(cells[0]))
}

func TestItemName_NestedEmphasisCountsOnce(t *testing.T) {
	doc := mustParse(t, "<table><tr><td><strong><b>Burger</b></strong><br>no onions</td></tr></table>")
	cells := doc.FindAll("td")
	require.Len(t, cells, 1)
	assert.Equal(t, "Burger", itemName(cells[0]))
}

func TestItemName_SiblingEmphasisJoined(t *testing.T) {
	doc := mustParse(t, "<table><tr><td><b>Spicy</b><strong> Wings</strong></td></tr></table>")
	cells := doc.FindAll("td")
	require.Len(t, cells, 1)
	assert.Equal(t, "Spicy Wings", itemName(cells[0]))
}

func TestExtract_NestedEmphasisKeepsItemIdentity(t *testing.T) {
	plain := testutil.BurgerReceipt().HTML()
	nested := strings.Replace(plain, "<b>Burger</b>", "<strong><b>Burger</b></strong>", 1)
	require.NotEqual(t, plain, nested)

	want, err := New().Extract(plain, nil)
	require.NoError(t, err)
	got, err := New().Extract(nested, nil)
	require.NoError(t, err)
	assert.Equal(t, "Burger", got.RestaurantItems[0].Name)
	assert.Equal(t, want.RestaurantItems[0].ID, got.RestaurantItems[0].ID)
}
