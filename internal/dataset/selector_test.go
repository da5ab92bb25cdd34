package dataset

import (
	"testing"

	"github.com/spacesedan/votesense/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTextColumn(t *testing.T) {
	tests := []struct {
		name    string
		columns []models.Column
		want    string
	}{
		{
			name: "preferred name beats earlier text column",
			columns: []models.Column{
				{Name: "author", Type: models.ColumnText},
				{Name: "likes", Type: models.ColumnNumeric},
				{Name: "Tweet", Type: models.ColumnNumeric},
			},
			want: "Tweet",
		},
		{
			name: "first preferred name in column order wins",
			columns: []models.Column{
				{Name: "MESSAGE", Type: models.ColumnText},
				{Name: "text", Type: models.ColumnText},
			},
			want: "MESSAGE",
		},
		{
			name: "falls back to first text column",
			columns: []models.Column{
				{Name: "id", Type: models.ColumnNumeric},
				{Name: "posted", Type: models.ColumnDate},
				{Name: "body", Type: models.ColumnText},
				{Name: "title", Type: models.ColumnText},
			},
			want: "body",
		},
		{
			name: "trims whitespace around preferred names",
			columns: []models.Column{
				{Name: "notes", Type: models.ColumnText},
				{Name: " comment ", Type: models.ColumnText},
			},
			want: " comment ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectTextColumn(tt.columns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectTextColumnFailures(t *testing.T) {
	_, err := SelectTextColumn(nil)
	assert.ErrorIs(t, err, models.ErrNoTextColumn)

	_, err = SelectTextColumn([]models.Column{
		{Name: "votes", Type: models.ColumnNumeric},
		{Name: "date", Type: models.ColumnDate},
		{Name: "blank", Type: models.ColumnEmpty},
	})
	assert.ErrorIs(t, err, models.ErrNoTextColumn)
}
