package market

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMagnitude(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"small float", 999.0, "999.0"},
		{"thousand boundary", 1000.0, "1.0K"},
		{"thousands", 340000.0, "340.0K"},
		{"million boundary", 1000000.0, "1.0M"},
		{"millions", 1500000.0, "1.5M"},
		{"large", 75000000.0, "75.0M"},
		{"int input", 340, "340.0"},
		{"numeric string", "2500000", "2.5M"},
		{"scalar", Scalar("1200"), "1.2K"},
		{"zero", 0.0, "0.0"},
		{"non-numeric string", "abc", Sentinel},
		{"empty string", "", Sentinel},
		{"nil", nil, Sentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMagnitude(tt.value))
		})
	}
}

func TestTopHolderShare(t *testing.T) {
	tests := []struct {
		name    string
		holders []Holder
		want    string
	}{
		{
			name:    "sum of fractions",
			holders: []Holder{{Percentage: "0.1"}, {Percentage: "0.05"}},
			want:    "15.0%",
		},
		{
			name:    "fractional result keeps two decimals",
			holders: []Holder{{Percentage: "0.12345"}},
			want:    "12.35%",
		},
		{
			name:    "single whole holder",
			holders: []Holder{{Percentage: "1"}},
			want:    "100.0%",
		},
		{
			name:    "empty set",
			holders: nil,
			want:    Sentinel,
		},
		{
			name:    "unparseable share",
			holders: []Holder{{Percentage: "0.1"}, {Percentage: "lots"}},
			want:    Sentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopHolderShare(tt.holders))
		})
	}
}

func TestScalarUnmarshal(t *testing.T) {
	var detail TokenDetail
	raw := `{"name":"MyCoin","price":0.0042,"totalSupply":"2500000","holders":null,"scamFlag":0}`
	assert.NoError(t, json.Unmarshal([]byte(raw), &detail))
	assert.Equal(t, "0.0042", detail.Price.String())
	assert.Equal(t, "2500000", detail.TotalSupply.String())
	assert.Equal(t, "", detail.Holders.String())
}
