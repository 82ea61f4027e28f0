package pricing

import "testing"

func TestAmountMinor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		unitPrice string
		quantity  int
		want      int64
		wantErr   bool
	}{
		{"whole rupees", "250.00", 2, 50000, false},
		{"single unit", "99.99", 1, 9999, false},
		{"no decimals", "20", 3, 6000, false},
		{"half paise resolves over quantity", "10.005", 2, 2001, false},
		{"sub-minor precision", "10.005", 1, 0, true},
		{"zero price", "0", 1, 0, true},
		{"negative price", "-5.00", 1, 0, true},
		{"zero quantity", "250.00", 0, 0, true},
		{"negative quantity", "250.00", -1, 0, true},
		{"garbage price", "abc", 1, 0, true},
		{"empty price", "", 1, 0, true},
		{"large order", "19999.99", 1000, 1999999000, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := AmountMinor(tt.unitPrice, tt.quantity)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("AmountMinor(%q, %d) expected error, got %d", tt.unitPrice, tt.quantity, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("AmountMinor(%q, %d): %v", tt.unitPrice, tt.quantity, err)
			}
			if got != tt.want {
				t.Errorf("AmountMinor(%q, %d) = %d, want %d", tt.unitPrice, tt.quantity, got, tt.want)
			}
		})
	}
}
