package mail

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestUnconfiguredMailerKeepsLinksOutOfInfoLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewSMTPMailer(SMTPConfig{}, zap.New(core))

	link := "https://app.test/reset-password?token=secret-token"
	if err := SendPasswordReset(m, "a@b.com", link); err != nil {
		t.Fatal(err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	for _, f := range entries[0].Context {
		if strings.Contains(f.String, "secret-token") {
			t.Fatalf("field %s leaks the reset token", f.Key)
		}
	}
}

func TestUnconfiguredMailerShowsBodyAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := NewSMTPMailer(SMTPConfig{}, zap.New(core))

	if err := SendPasswordReset(m, "a@b.com", "https://app.test/reset-password?token=abc"); err != nil {
		t.Fatal(err)
	}
	debug := logs.FilterLevelExact(zapcore.DebugLevel).All()
	if len(debug) != 1 || !strings.Contains(debug[0].ContextMap()["body"].(string), "token=abc") {
		t.Fatalf("debug entries = %+v", debug)
	}
}
