package tvtrader

import (
	"testing"
	"time"
)

func TestNewSettings(t *testing.T) {
	settings, err := NewSettings(30, 10, 60, 300, 10, 60, true, "bot@example.com")
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if settings.MailPollingInterval != 30*time.Second {
		t.Errorf(
			"unexpected mail polling interval\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			30*time.Second,
			settings.MailPollingInterval,
		)
	}

	if settings.OpenOrdersExpiration != 300*time.Second {
		t.Errorf(
			"unexpected open orders expiration\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			300*time.Second,
			settings.OpenOrdersExpiration,
		)
	}

	if !settings.RetryOrder {
		t.Errorf("unexpected retry order flag")
	}

	if settings.ExpectedSender != "bot@example.com" {
		t.Errorf(
			"unexpected expected sender\n"+
				"expected: [bot@example.com]\n"+
				"actual:   [%v]",
			settings.ExpectedSender,
		)
	}
}

func TestNewSettings_RejectsNonPositiveIntervals(t *testing.T) {
	_, err := NewSettings(30, 0, 60, 300, 10, 60, false, "")
	if err == nil {
		t.Fatalf("expected error for zero interval")
	}

	if !IsKind(err, KindParser) {
		t.Errorf(
			"unexpected error kind\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			KindParser,
			err,
		)
	}

	if _, err := NewSettings(30, 10, -5, 300, 10, 60, false, ""); err == nil {
		t.Errorf("expected error for negative interval")
	}
}
