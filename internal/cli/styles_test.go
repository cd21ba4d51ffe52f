package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(
		[]string{"ID", "Category", "Limit"},
		[][]string{
			{"1", "Groceries", "$250"},
			{"12", "overall spending"},
		},
	)

	lines := strings.Split(out, "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, out, "Category")
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "overall spending")
	assert.Contains(t, out, "$250")
}

func TestFormatters(t *testing.T) {
	assert.Contains(t, FormatSuccess("saved"), "saved")
	assert.Contains(t, FormatError("boom"), "boom")
	assert.Contains(t, FormatTitle("Goals"), "Goals")
	assert.Contains(t, StatusText(true), "on track")
	assert.Contains(t, StatusText(false), "off track")
	assert.Contains(t, RenderBox("Level", "3"), "Level")
}
