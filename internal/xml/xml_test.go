package xml

import (
	stdxml "encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrina/feedsmith/internal/catalog"
)

func decodeFeed(t *testing.T, data []byte) feed {
	t.Helper()

	var doc feed
	require.NoError(t, stdxml.Unmarshal(data, &doc), "document must stay well-formed")
	return doc
}

func TestEncodeWellFormedWithHostileInput(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []catalog.Record{
		{
			ID:          1,
			Name:        `<Boots> & "Winter"`,
			Description: "ends a section ]]> and <keeps> going & more",
			Sizes: catalog.Sizes{
				Kind:   catalog.SizeLabels,
				Labels: []string{"38", "39"},
			},
			Images:    []string{"https://cdn.example.com/a.jpg"},
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
			Slug:      "boots-winter",
		},
	}

	data, err := New(WithPublicBaseURL("https://shop.example.com")).Encode(records, now)
	require.NoError(t, err)

	doc := decodeFeed(t, data)
	require.Len(t, doc.Products, 1)

	p := doc.Products[0]
	assert.Equal(t, `<Boots> & "Winter"`, p.Name)
	assert.Equal(t, "ends a section ]]> and <keeps> going & more", p.Description.Text)
	assert.Equal(t, "38, 39", p.Sizes)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, p.Images)
	assert.Equal(t, "https://shop.example.com/products/boots-winter", p.URL)
	assert.Equal(t, "2024-03-01 12:00:00", doc.GeneratedAt)
}

func TestEncodeZeroRecordsYieldsEmptyRoot(t *testing.T) {
	data, err := New().Encode(nil, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	doc := decodeFeed(t, data)
	assert.Empty(t, doc.Products)
	assert.Equal(t, "2024-03-01 12:00:00", doc.GeneratedAt)
}

func TestEncodeUsesCDATAForDescription(t *testing.T) {
	records := []catalog.Record{{ID: 1, Description: "plain text"}}

	data, err := New().Encode(records, time.Time{})
	require.NoError(t, err)

	assert.Contains(t, string(data), "<![CDATA[plain text]]>")
}
