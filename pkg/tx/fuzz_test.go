package tx

import (
	"encoding/json"
	"testing"
)

// FuzzTxUnmarshal tests that arbitrary JSON input does not panic
// when unmarshaled into a Transaction struct.
func FuzzTxUnmarshal(f *testing.F) {
	f.Add([]byte(`{"version":1,"kind":"escrow.take","nonce":1,"payload":{"escrow":"0000000000000000000000000000000000000000"},"pubkey":"02","signature":"00"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"payload":null,"pubkey":null}`))
	f.Add([]byte(`{"kind":"","pubkey":"","signature":""}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var tx Transaction
		if err := json.Unmarshal(data, &tx); err != nil {
			return
		}
		// If unmarshal succeeded, these must not panic.
		tx.Hash()
		tx.SigningBytes()
		tx.Validate()
		tx.Signer() // May fail but must not panic.
		var p MakePayload
		tx.DecodePayload(&p)
	})
}
