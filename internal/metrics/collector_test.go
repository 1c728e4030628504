package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpDBQuery, 10*time.Millisecond)
	c.RecordTiming(OpDBQuery, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap.DBQuery == nil {
		t.Fatal("expected db query snapshot")
	}
	if snap.DBQuery.Count != 2 {
		t.Errorf("count = %d, want 2", snap.DBQuery.Count)
	}
	if snap.DBQuery.MinTimeMs != 10 || snap.DBQuery.MaxTimeMs != 30 {
		t.Errorf("min/max = %d/%d, want 10/30", snap.DBQuery.MinTimeMs, snap.DBQuery.MaxTimeMs)
	}
}

func TestCollectorTokenUsage(t *testing.T) {
	c := NewCollector()

	c.RecordLLMUsage(OpLLMGenerate, time.Second, 500, 1500)
	c.RecordLLMUsage(OpLLMGenerate, time.Second, 300, 700)

	snap := c.Snapshot()
	if snap.LLMGenerate == nil {
		t.Fatal("expected llm snapshot")
	}
	if snap.LLMGenerate.TotalInputTokens == nil || *snap.LLMGenerate.TotalInputTokens != 800 {
		t.Errorf("input tokens = %v, want 800", snap.LLMGenerate.TotalInputTokens)
	}
	if snap.LLMGenerate.TotalOutputTokens == nil || *snap.LLMGenerate.TotalOutputTokens != 2200 {
		t.Errorf("output tokens = %v, want 2200", snap.LLMGenerate.TotalOutputTokens)
	}
}

func TestCollectorEmptySnapshot(t *testing.T) {
	snap := NewCollector().Snapshot()
	if snap.LLMGenerate != nil || snap.Moderation != nil || snap.DBQuery != nil {
		t.Error("expected nil operation snapshots on empty collector")
	}
}

func TestCollectorConcurrentAccess(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpModeration, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.Moderation == nil || snap.Moderation.Count != 1000 {
		t.Errorf("count = %v, want 1000", snap.Moderation)
	}
}
