package status

import "testing"

func TestCountersAccumulateAndReset(t *testing.T) {
	c := New()
	c.RecordSent(10)
	c.RecordSent(5)
	c.RecordReceived(20)

	sent, sentB, recv, recvB := c.readAndReset()
	if sent != 2 || sentB != 15 {
		t.Fatalf("unexpected sent counters: %d/%d", sent, sentB)
	}
	if recv != 1 || recvB != 20 {
		t.Fatalf("unexpected recv counters: %d/%d", recv, recvB)
	}

	sent, sentB, recv, recvB = c.readAndReset()
	if sent != 0 || sentB != 0 || recv != 0 || recvB != 0 {
		t.Fatal("expected counters to be zeroed after read")
	}
}
