package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMapping(t *testing.T) {
	m, err := NewMapping(MappingSpec{
		Name:             "price",
		SourceTable:      "prices",
		SourceMatch:      "A",
		SourceMatchValue: "P-1",
		SourceValue:      "prices!C:C",
		TargetTable:      "orders",
		TargetMatch:      "sku",
		TargetMatchValue: "P-1",
		TargetInsert:     "E",
		TargetRowRange:   RowRange{Start: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, OpEquals, m.SourceMatchOperator, "blank operator defaults to equals")
	assert.Equal(t, OpEquals, m.TargetMatchOperator)
	assert.Equal(t, "A", m.SourceMatch.Letter)
	assert.Equal(t, "prices", m.SourceValue.Sheet)
	assert.Equal(t, "C", m.SourceValue.Letter)
	assert.Equal(t, Str("P-1"), m.SourceMatchValue)
	assert.Equal(t, []string{"prices", "orders"}, m.Tables())
}

func TestNewMappingErrors(t *testing.T) {
	base := MappingSpec{
		Name: "m", SourceTable: "s", SourceMatch: "id", SourceValue: "val",
		TargetTable: "t", TargetMatch: "id", TargetInsert: "out",
	}
	tests := []struct {
		name    string
		mutate  func(*MappingSpec)
		wantErr error
	}{
		{name: "blank name", mutate: func(s *MappingSpec) { s.Name = "" }, wantErr: ErrInvalidName},
		{name: "missing target table", mutate: func(s *MappingSpec) { s.TargetTable = "" }, wantErr: ErrInvalidName},
		{name: "bad operator", mutate: func(s *MappingSpec) { s.SourceMatchOperator = "like" }, wantErr: ErrInvalidOperator},
		{name: "empty coordinate", mutate: func(s *MappingSpec) { s.TargetInsert = "" }, wantErr: ErrInvalidCoordinate},
		{name: "bad range coordinate", mutate: func(s *MappingSpec) { s.SourceValue = "A:C" }, wantErr: ErrInvalidCoordinate},
		{name: "inverted row range", mutate: func(s *MappingSpec) { s.SourceRowRange = RowRange{Start: 5, End: 2} }, wantErr: ErrInvalidRowRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base
			tt.mutate(&spec)
			_, err := NewMapping(spec)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := NewMapping(base)
	assert.NoError(t, err)
}

func TestParseTieBreak(t *testing.T) {
	got, err := ParseTieBreak("")
	require.NoError(t, err)
	assert.Equal(t, TieBreakFirst, got)

	got, err = ParseTieBreak(" Last ")
	require.NoError(t, err)
	assert.Equal(t, TieBreakLast, got)

	_, err = ParseTieBreak("middle")
	assert.ErrorIs(t, err, ErrInvalidTieBreak)
}
