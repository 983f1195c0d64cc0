package auctionctl

import "testing"

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   uint64
		decimals uint8
		want     string
	}{
		{amount: 1250, decimals: 2, want: "12.50"},
		{amount: 1, decimals: 0, want: "1"},
		{amount: 5, decimals: 6, want: "0.000005"},
		{amount: ^uint64(0), decimals: 0, want: "18446744073709551615"},
	}
	for _, tc := range tests {
		if got := formatAmount(tc.amount, tc.decimals); got != tc.want {
			t.Fatalf("formatAmount(%d, %d) = %q, want %q", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		decimals uint8
		want     uint64
		wantErr  bool
	}{
		{name: "whole", value: "12", decimals: 2, want: 1200},
		{name: "fraction", value: "12.5", decimals: 2, want: 1250},
		{name: "no decimals", value: "3", decimals: 0, want: 3},
		{name: "max", value: "18446744073709551615", decimals: 0, want: ^uint64(0)},
		{name: "too precise", value: "0.001", decimals: 2, wantErr: true},
		{name: "negative", value: "-1", decimals: 2, wantErr: true},
		{name: "overflow", value: "18446744073709551616", decimals: 0, wantErr: true},
		{name: "garbage", value: "ten", decimals: 2, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseAmount(tc.value, tc.decimals)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseAmount(%q) = %d, want error", tc.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAmount(%q): %v", tc.value, err)
			}
			if got != tc.want {
				t.Fatalf("parseAmount(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}
