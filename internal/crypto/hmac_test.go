package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testAuth() *HMACAuth {
	return &HMACAuth{
		Key:        "api-key",
		Secret:     base64.StdEncoding.EncodeToString([]byte("super-secret")),
		Passphrase: "phrase",
	}
}

func TestL2HeadersAt(t *testing.T) {
	h := testAuth()
	headers := h.L2HeadersAt("0xwallet", "GET", "/orders", "", 1700000000)

	if headers["POLY_ADDRESS"] != "0xwallet" {
		t.Fatalf("address = %q", headers["POLY_ADDRESS"])
	}
	if headers["POLY_API_KEY"] != "api-key" {
		t.Fatalf("api key = %q", headers["POLY_API_KEY"])
	}
	if headers["POLY_TIMESTAMP"] != "1700000000" {
		t.Fatalf("timestamp = %q", headers["POLY_TIMESTAMP"])
	}
	if headers["POLY_PASSPHRASE"] != "phrase" {
		t.Fatalf("passphrase = %q", headers["POLY_PASSPHRASE"])
	}

	sig := headers["POLY_SIGNATURE"]
	if sig == "" {
		t.Fatal("missing signature")
	}
	if _, err := base64.StdEncoding.DecodeString(sig); err != nil {
		t.Fatalf("signature not base64: %v", err)
	}
}

func TestL2HeadersDeterministic(t *testing.T) {
	h := testAuth()

	a := h.L2HeadersAt("0xw", "POST", "/order", `{"x":1}`, 1700000000)
	b := h.L2HeadersAt("0xw", "POST", "/order", `{"x":1}`, 1700000000)
	if a["POLY_SIGNATURE"] != b["POLY_SIGNATURE"] {
		t.Fatal("same inputs must sign identically")
	}

	c := h.L2HeadersAt("0xw", "POST", "/order", `{"x":2}`, 1700000000)
	if a["POLY_SIGNATURE"] == c["POLY_SIGNATURE"] {
		t.Fatal("different body must change the signature")
	}

	d := h.L2HeadersAt("0xw", "POST", "/order", `{"x":1}`, 1700000001)
	if a["POLY_SIGNATURE"] == d["POLY_SIGNATURE"] {
		t.Fatal("different timestamp must change the signature")
	}
}

func TestHMACAuthStringRedacts(t *testing.T) {
	h := testAuth()
	s := h.String()
	if strings.Contains(s, h.Secret) {
		t.Fatalf("String leaked the secret: %s", s)
	}
	if !strings.Contains(s, "****") {
		t.Fatalf("String not redacted: %s", s)
	}
}
