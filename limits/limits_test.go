package limits

import (
	"errors"
	"math"
	"testing"
)

func TestValidateHostMessage(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, true},
		{"header minus one", 13, true},
		{"header only", 14, false},
		{"header and payload", 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHostMessage(make([]byte, tt.size), 14)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateHostMessage(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMessageTooShort) {
				t.Errorf("expected ErrMessageTooShort, got %v", err)
			}
		})
	}
}

func TestValidateDatagram(t *testing.T) {
	if err := ValidateDatagram(make([]byte, MaxUDPPayload)); err != nil {
		t.Errorf("payload at limit rejected: %v", err)
	}
	if err := ValidateDatagram(make([]byte, MaxUDPPayload+1)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestValidateFragments(t *testing.T) {
	frags := [][]byte{make([]byte, 10), make([]byte, 20), make([]byte, 5)}

	if err := ValidateFragments(frags, 35); err != nil {
		t.Errorf("exact total rejected: %v", err)
	}
	if err := ValidateFragments(frags, 50); err != nil {
		t.Errorf("total larger than fragments rejected: %v", err)
	}
	if err := ValidateFragments(frags, 34); !errors.Is(err, ErrFragmentOverflow) {
		t.Errorf("expected ErrFragmentOverflow, got %v", err)
	}
	if err := ValidateFragments(nil, 0); err != nil {
		t.Errorf("no fragments rejected: %v", err)
	}
	if err := ValidateFragments(nil, -1); !errors.Is(err, ErrFragmentOverflow) {
		t.Errorf("negative total accepted")
	}
}

// TestAdvertisedBufferFitsReceiveBuffer guards against a capability record
// promising more than the worker can receive.
func TestAdvertisedBufferFitsReceiveBuffer(t *testing.T) {
	if MaxBufferSize > MaxDatagramSize {
		t.Errorf("MaxBufferSize %d exceeds MaxDatagramSize %d", MaxBufferSize, MaxDatagramSize)
	}
}

func TestValidateMessageSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"header only", 14, false},
		{"largest datagram", 14 + MaxUDPPayload, false},
		{"one over", 14 + MaxUDPPayload + 1, true},
		{"huge", math.MaxInt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageSize(tt.size, 14)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMessageSize(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMessageTooLarge) {
				t.Errorf("expected ErrMessageTooLarge, got %v", err)
			}
		})
	}
}
