package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	keys := []string{
		"0123456789abcdef0123456789abcdef",                                 // hex, 16 bytes
		"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", // hex, 32 bytes
		"raw-key-of-16-bb",
	}
	for _, key := range keys {
		enc, err := Encrypt("sk_live_secret", key)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", key, err)
		}
		if enc == "sk_live_secret" {
			t.Fatal("ciphertext equals plaintext")
		}
		dec, err := Decrypt(enc, key)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", key, err)
		}
		if dec != "sk_live_secret" {
			t.Errorf("round trip = %q", dec)
		}
	}
}

func TestEncryptRejectsBadKeys(t *testing.T) {
	if _, err := Encrypt("x", ""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("empty key error = %v", err)
	}
	if _, err := Encrypt("x", "short"); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("short key error = %v", err)
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	enc, err := Encrypt("payload", "0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(enc, "fedcba9876543210fedcba9876543210"); err == nil {
		t.Error("expected error for wrong key")
	}
}

func TestGenerateULID(t *testing.T) {
	a, b := GenerateULID(), GenerateULID()
	if a == b {
		t.Error("ULIDs should be unique")
	}
	if !IsULID(a) {
		t.Errorf("IsULID(%q) = false", a)
	}
	if IsULID("not-a-ulid") {
		t.Error("IsULID accepted garbage")
	}
}

func TestPaymentTokens(t *testing.T) {
	tokens := NewPaymentTokens("test-secret", time.Hour)

	signed, err := tokens.Issue("pay-1", "page-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := tokens.Validate(signed, "pay-1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.PageID != "page-1" {
		t.Errorf("PageID = %q", claims.PageID)
	}

	if _, err := tokens.Validate(signed, "pay-2"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("token for another payment accepted: %v", err)
	}

	other := NewPaymentTokens("other-secret", time.Hour)
	if _, err := other.Validate(signed, "pay-1"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("token signed with another secret accepted: %v", err)
	}

	expired := NewPaymentTokens("test-secret", -time.Minute)
	old, _ := expired.Issue("pay-1", "page-1")
	if _, err := tokens.Validate(old, "pay-1"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expired token accepted: %v", err)
	}
}

func TestSanitizeRichText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello world", "Hello world"},
		{"bold kept", "<b>Oferta</b> hoje", "<b>Oferta</b> hoje"},
		{"attributes stripped", `<span style="color:red" onclick="x()">hi</span>`, "<span>hi</span>"},
		{"script dropped with content", `a<script>alert(1)</script>b`, "ab"},
		{"unknown tag unwrapped", `<a href="javascript:x">link</a>`, "link"},
		{"text escaped", `5 < 6 & "q"`, "5 &lt; 6 &amp; &#34;q&#34;"},
		{"br normalized", "a<br>b<br/>c", "a<br/>b<br/>c"},
		{"unclosed closed", "<strong>bold", "<strong>bold</strong>"},
		{"stray end dropped", "text</em>", "text"},
		{"misnested", "<b><i>x</b>y</i>", "<b><i>x</i></b>y"},
		{"image onerror", `<img src=x onerror=alert(1)>ok`, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeRichText(tt.in); got != tt.want {
				t.Errorf("SanitizeRichText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRichTextConvertsNewlines(t *testing.T) {
	got := RichText("linha 1\nlinha 2\r\n<b>3</b>")
	want := "linha 1<br/>linha 2<br/><b>3</b>"
	if got != want {
		t.Errorf("RichText = %q, want %q", got, want)
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags("<p>Pagamento <b>confirmado</b></p><script>x</script>")
	if got != "Pagamento confirmado" {
		t.Errorf("StripTags = %q", got)
	}
	if strings.Contains(StripTags("<style>p{}</style>ok"), "p{}") {
		t.Error("style content leaked")
	}
}
