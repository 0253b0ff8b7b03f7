package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigger_CoalescesRequests(t *testing.T) {
	tr := NewTrigger()

	tr.Request()
	tr.Request()
	tr.Request()

	select {
	case <-tr.C():
	default:
		t.Fatal("expected a queued request")
	}

	select {
	case <-tr.C():
		t.Fatal("requests should coalesce into one token")
	default:
	}
}

func TestTrigger_NilSafe(t *testing.T) {
	var tr *Trigger
	tr.Request()
	assert.Nil(t, tr.C())
}
