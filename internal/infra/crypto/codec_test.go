package crypto

import (
	"errors"
	"strings"
	"testing"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec([]byte("0123456789abcdef0123456789abcdef"), nil)
	if err != nil {
		t.Fatalf("create codec: %v", err)
	}
	return codec
}

func TestNewCodecRejectsBadKeySizes(t *testing.T) {
	for _, size := range []int{0, 16, 24, 31, 33, 64} {
		if _, err := NewCodec(make([]byte, size), nil); err == nil {
			t.Fatalf("expected error for %d-byte key", size)
		}
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec := testCodec(t)

	for _, plaintext := range []string{"", "a", "+15551234567", "patient data with spaces", "ünïcodé"} {
		token, err := codec.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("encrypt %q: %v", plaintext, err)
		}

		parts := strings.Split(token, ":")
		if len(parts) != 2 {
			t.Fatalf("expected ivHex:cipherHex, got %q", token)
		}

		decrypted, err := codec.Decrypt(token)
		if err != nil {
			t.Fatalf("decrypt %q: %v", token, err)
		}
		if decrypted != plaintext {
			t.Fatalf("round trip mismatch: %q != %q", decrypted, plaintext)
		}
	}
}

func TestEncryptUsesFreshIV(t *testing.T) {
	codec := testCodec(t)

	first, err := codec.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	second, err := codec.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if first == second {
		t.Fatal("identical plaintexts must never produce identical tokens")
	}
}

func TestDecryptMalformedTokens(t *testing.T) {
	codec := testCodec(t)

	malformed := []string{
		"",
		"no-colon",
		"a:b:c",
		"zz:00",
		"00:zz",
		"0000:00", // wrong nonce length
	}
	for _, token := range malformed {
		if _, err := codec.Decrypt(token); !errors.Is(err, ErrMalformedCiphertext) {
			t.Fatalf("token %q: expected ErrMalformedCiphertext, got %v", token, err)
		}
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	codec := testCodec(t)

	other, err := NewCodec([]byte("ffffffffffffffffffffffffffffffff"), nil)
	if err != nil {
		t.Fatalf("create second codec: %v", err)
	}

	token, err := codec.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := other.Decrypt(token); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	codec := testCodec(t)

	token, err := codec.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// Flip one hex digit of the ciphertext segment.
	last := token[len(token)-1]
	flip := byte('0')
	if last == '0' {
		flip = '1'
	}
	tampered := token[:len(token)-1] + string(flip)

	if _, err := codec.Decrypt(tampered); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestHashIsStableAndOneWay(t *testing.T) {
	codec := testCodec(t)

	first := codec.Hash("value")
	second := codec.Hash("value")
	if first != second {
		t.Fatal("hash must be deterministic")
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	if codec.Hash("other") == first {
		t.Fatal("different inputs must hash differently")
	}
}

func TestMask(t *testing.T) {
	codec := testCodec(t)

	cases := []struct {
		value   string
		visible int
		want    string
	}{
		{"1234567890123", 2, "12*********23"},
		{"abcdef", 1, "a****f"},
		{"abcd", 2, "***"},
		{"ab", 2, "***"},
		{"", 2, "***"},
		{"abcdef", 0, "***"},
		{"abcdef", -1, "***"},
	}

	for _, tc := range cases {
		if got := codec.Mask(tc.value, tc.visible); got != tc.want {
			t.Fatalf("Mask(%q, %d) = %q, want %q", tc.value, tc.visible, got, tc.want)
		}
	}
}

func TestFieldHelpers(t *testing.T) {
	codec := testCodec(t)
	fields := []string{"phone", "ssn"}

	entity := map[string]any{
		"name":  "Jane",
		"phone": "+15551234567",
		"ssn":   "",
		"age":   34,
	}

	if err := codec.EncryptFields(entity, fields); err != nil {
		t.Fatalf("encrypt fields: %v", err)
	}

	if entity["name"] != "Jane" || entity["age"] != 34 {
		t.Fatal("unlisted fields must stay untouched")
	}
	if entity["ssn"] != "" {
		t.Fatal("empty fields must stay untouched")
	}
	phone, _ := entity["phone"].(string)
	if phone == "+15551234567" || !strings.Contains(phone, ":") {
		t.Fatalf("expected encrypted phone, got %q", phone)
	}

	codec.DecryptFields(entity, fields)
	if entity["phone"] != "+15551234567" {
		t.Fatalf("expected decrypted phone, got %v", entity["phone"])
	}
}

func TestDecryptFieldsDegradesBadField(t *testing.T) {
	codec := testCodec(t)

	entity := map[string]any{"phone": "not-a-token"}
	codec.DecryptFields(entity, []string{"phone"})

	if entity["phone"] != "not-a-token" {
		t.Fatalf("failed field must keep its stored value, got %v", entity["phone"])
	}
}
