package pricehistory

import (
	"testing"
)

func TestBuffer_AppendAndSize(t *testing.T) {
	b := NewBuffer(100)

	if b.Size() != 0 {
		t.Errorf("expected size 0, got %d", b.Size())
	}

	for i := 0; i < 10; i++ {
		b.Append(PricePoint{Price: float64(100 + i)})
	}

	if b.Size() != 10 {
		t.Errorf("expected size 10, got %d", b.Size())
	}
}

func TestBuffer_Last(t *testing.T) {
	b := NewBuffer(200)

	for i := 0; i < 100; i++ {
		b.Append(PricePoint{Price: float64(3000 + i)})
	}

	last5 := b.Last(5)
	if len(last5) != 5 {
		t.Fatalf("expected 5 points, got %d", len(last5))
	}

	for i, p := range last5 {
		expected := float64(3095 + i)
		if p.Price != expected {
			t.Errorf("point %d: expected price %f, got %f", i, expected, p.Price)
		}
	}

	// Asking for more than stored returns everything.
	all := b.Last(500)
	if len(all) != 100 {
		t.Errorf("expected 100 points, got %d", len(all))
	}
}

func TestBuffer_Wraparound(t *testing.T) {
	b := NewBuffer(50)

	for i := 0; i < 75; i++ {
		b.Append(PricePoint{Price: float64(i)})
	}

	if b.Size() != 50 {
		t.Errorf("expected size capped at 50, got %d", b.Size())
	}

	points := b.Snapshot()
	if points[0].Price != 25 {
		t.Errorf("oldest surviving point should be 25, got %f", points[0].Price)
	}
	if points[len(points)-1].Price != 74 {
		t.Errorf("newest point should be 74, got %f", points[len(points)-1].Price)
	}
}

func TestBuffer_Latest(t *testing.T) {
	b := NewBuffer(10)

	if b.Latest() != nil {
		t.Error("empty buffer should have no latest point")
	}

	b.Append(PricePoint{Price: 10})
	b.Append(PricePoint{Price: 20})

	latest := b.Latest()
	if latest == nil || latest.Price != 20 {
		t.Errorf("expected latest price 20, got %v", latest)
	}
}

func TestTracker_PerSymbolBuffers(t *testing.T) {
	tr := NewTracker(10)

	tr.Append("AAPL", PricePoint{Price: 100})
	tr.Append("AAPL", PricePoint{Price: 101})
	tr.Append("TSLA", PricePoint{Price: 200})

	aapl := tr.Snapshot("AAPL")
	if len(aapl) != 2 || aapl[1].Price != 101 {
		t.Errorf("unexpected AAPL history: %v", aapl)
	}

	tsla := tr.Snapshot("TSLA")
	if len(tsla) != 1 || tsla[0].Price != 200 {
		t.Errorf("unexpected TSLA history: %v", tsla)
	}

	if tr.Snapshot("MSFT") != nil {
		t.Error("unknown symbol should have nil history")
	}
}
