package profiler

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

func TestTickLogsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	now := time.Unix(0, 0)
	p := NewProfiler()
	p.now = func() time.Time { return now }
	p.lastTime = now

	for i := 0; i < 9; i++ {
		now = now.Add(100 * time.Millisecond)
		if p.Tick(1000) {
			t.Fatalf("tick %d logged before the interval elapsed", i)
		}
	}
	now = now.Add(100 * time.Millisecond)
	if !p.Tick(1000) {
		t.Fatalf("tick at the interval should log")
	}
	if !strings.Contains(buf.String(), "Skinned: 10000 verts/s") || !strings.Contains(buf.String(), "FPS: 10.00") {
		t.Fatalf("unexpected log line %q", buf.String())
	}
	if p.frameCount != 0 || p.vertexCount != 0 {
		t.Fatalf("counters not reset")
	}
}
