package textfold

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Café", want: "cafe"},
		{in: "  ÉLAN ", want: "elan"},
		{in: "أحمد", want: "احمد"},
		{in: "إيمان", want: "ايمان"},
		{in: "مُحَمَّد", want: "محمد"},
		{in: "فاطمة", want: "فاطمه"},
		{in: "مصطفى", want: "مصطفي"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestContains(t *testing.T) {
	require.True(t, Contains("محلات الأمل", "الامل"))
	require.True(t, Contains("Boutique Hélène", "helene"))
	require.False(t, Contains("محلات الأمل", "النور"))
}

func TestKey(t *testing.T) {
	require.Equal(t, "محلات الامل 0100", Key("محلات الأمل", "", "0100"))
}
