package tvtrader

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsKind(t *testing.T) {
	err := ExchangeErrorf(errors.New("timeout"), "request to [%v] failed", "x")

	if !IsKind(err, KindExchange) {
		t.Errorf("expected an exchange error")
	}

	if IsKind(err, KindUnverified) {
		t.Errorf("unexpected unverified error")
	}

	if IsKind(errors.New("plain"), KindExchange) {
		t.Errorf("plain errors must not match any kind")
	}
}

func TestIsKind_Wrapped(t *testing.T) {
	inner := UnverifiedErrorf(errors.New("bad key"), "verification failed")
	wrapped := fmt.Errorf("could not start protection: [%w]", inner)

	if !IsKind(wrapped, KindUnverified) {
		t.Errorf("kind must be detectable through wrapping")
	}
}

func TestError_Message(t *testing.T) {
	err := ExchangeErrorf(errors.New("timeout"), "request failed")

	expected := "request failed: [timeout]"
	if err.Error() != expected {
		t.Errorf(
			"unexpected error message\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			expected,
			err.Error(),
		)
	}
}
