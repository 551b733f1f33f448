package stamp

import (
	"errors"
	"math"
	"testing"

	"github.com/Klingon-tech/klingnet-stamp/pkg/metadata"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

func TestRequestMetadata_Wire(t *testing.T) {
	got, err := metadata.Marshal(NewRequestMetadata("http://x/file.zip"))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `{"request":{"requestType":"STAMP","uri":"http://x/file.zip"}}`
	if string(got) != want {
		t.Errorf("metadata = %s, want %s", got, want)
	}
}

func TestResponse_FundingAmount(t *testing.T) {
	tests := []struct {
		name    string
		resp    Response
		days    uint64
		want    uint64
		wantErr bool
	}{
		{"one day", Response{AmountToMint: 200000, DailyCost: 50000}, 1, 250000, false},
		{"thirty days", Response{AmountToMint: 200000, DailyCost: 50000}, 30, 1_700_000, false},
		{"free", Response{AmountToMint: 100}, 5, 100, false},
		{"cost overflow", Response{DailyCost: math.MaxUint64 / 2}, 3, 0, true},
		{"sum overflow", Response{AmountToMint: math.MaxUint64, DailyCost: 1}, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.resp.FundingAmount(tt.days)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidResponse) {
					t.Fatalf("FundingAmount() error = %v, want ErrInvalidResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FundingAmount() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FundingAmount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResponse_FundingAddress(t *testing.T) {
	addr := types.Address{0xc0}
	for _, s := range []string{addr.Hex(), addr.Bech32(types.DevnetHRP)} {
		r := Response{Address: s}
		got, err := r.FundingAddress()
		if err != nil {
			t.Fatalf("FundingAddress(%s) error: %v", s, err)
		}
		if got != addr {
			t.Errorf("FundingAddress(%s) = %s", s, got.Hex())
		}
	}
	for _, s := range []string{"", "addrC"} {
		r := Response{Address: s}
		if _, err := r.FundingAddress(); !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("FundingAddress(%q) error = %v, want ErrInvalidResponse", s, err)
		}
	}
}
