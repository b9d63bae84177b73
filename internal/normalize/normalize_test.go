package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *string
	}{
		{"no tags", "Maria Oliveira", ptr("Maria Oliveira")},
		{"trailing tag", "987.654.321-00 - [REVISAR]", ptr("987.654.321-00 -")},
		{"several tags", "[REVISAR] Rua A [ILEGÍVEL] 10", ptr("Rua A  10")},
		{"only tag", "[ILEGÍVEL]", nil},
		{"only tags and spaces", "  [A] [B]  ", nil},
		{"empty", "", nil},
		{"unclosed bracket kept", "Sala [3", ptr("Sala [3")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StripTags(tt.in))
		})
	}
}

func TestStripTagsPtr(t *testing.T) {
	require.Nil(t, StripTagsPtr(nil))
	require.Equal(t, ptr("x"), StripTagsPtr(ptr(" x [REVISAR]")))
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want *string
	}{
		{"20/04/1990", ptr("1990-04-20")},
		{"20-04-1990", ptr("1990-04-20")},
		{"1990-04-20", ptr("1990-04-20")},
		{"5/4/1990", ptr("1990-04-05")},
		{"20/04/1990 [REVISAR]", ptr("1990-04-20")},
		{"32/13/2020", nil},
		{"31/02/2020", nil},
		{"April 20, 1990", nil},
		{"[ILEGÍVEL]", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
	require.Nil(t, NormalizeDatePtr(nil))
}

func TestTaxIDs(t *testing.T) {
	require.True(t, ValidCPF("529.982.247-25"))
	require.True(t, ValidCPF("12345678909"))
	require.False(t, ValidCPF("529.982.247-26"))
	require.False(t, ValidCPF("111.111.111-11"))
	require.False(t, ValidCPF("123"))

	require.True(t, ValidCNPJ("11.222.333/0001-81"))
	require.False(t, ValidCNPJ("98.765.432/0001-10"))
	require.False(t, ValidCNPJ("00.000.000/0000-00"))

	require.Equal(t, "***.***.247-**", MaskCPF("529.982.247-25"))
	require.Equal(t, "**.***.***/****-81", MaskCNPJ("11.222.333/0001-81"))
	require.Equal(t, "abc", MaskCPF("abc"))
}
