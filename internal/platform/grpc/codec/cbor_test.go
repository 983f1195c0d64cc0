package codec

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/encoding"
)

type sample struct {
	Name   string            `cbor:"name"`
	Amount uint64            `cbor:"amount"`
	Tags   map[string]string `cbor:"tags"`
}

func TestCodecIsRegistered(t *testing.T) {
	t.Parallel()

	if got := encoding.GetCodec(Name); got == nil {
		t.Fatal("expected cbor codec to be registered")
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	t.Parallel()

	value := sample{
		Name:   "lot-7",
		Amount: 1_000_000,
		Tags:   map[string]string{"z": "last", "a": "first", "m": "middle"},
	}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding changed between runs")
		}
	}

	var decoded sample
	if err := (Codec{}).Unmarshal(first, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(value, decoded); diff != "" {
		t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	t.Parallel()

	var decoded sample
	if err := (Codec{}).Unmarshal([]byte{0xff, 0x00}, &decoded); err == nil {
		t.Fatal("expected decode error")
	}
}
