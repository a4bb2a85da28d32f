package qrexec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode encodes values canonically so equal values produce equal messages.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("qrexec: failed to create CBOR enc mode: %v", err))
	}

	cborEncMode = em
}

// SendValue encodes v as CBOR and sends it as one message.
// A value whose encoding does not fit the write buffer fails with *CapacityError.
func SendValue(t Transport, v any) error {
	data, err := cborEncMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}

	if _, err := t.SendMessage(data); err != nil {
		return err
	}

	return nil
}

// ReceiveValue reads one message and decodes it as CBOR into v.
func ReceiveValue(t Transport, v any) error {
	data, err := t.ReceiveMessage()
	if err != nil {
		return err
	}

	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}

	return nil
}
