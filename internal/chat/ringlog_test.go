package chat

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingLog_New(t *testing.T) {
	l := NewRingLog(10)

	assert.Equal(t, 10, l.Capacity())
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, uint64(0), l.WriteOffset())

	data, offset := l.Snapshot()
	assert.Empty(t, data)
	assert.Equal(t, uint64(0), offset)
}

func TestRingLog_NewRejectsZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { NewRingLog(0) })
}

func TestRingLog_RoundTrip(t *testing.T) {
	l := NewRingLog(32)

	var want bytes.Buffer
	for _, chunk := range []string{"msg1\n", "msg2\n", "a", "", "last line\n"} {
		n := l.Append([]byte(chunk))
		assert.Equal(t, len(chunk), n)
		want.WriteString(chunk)
	}

	assert.Equal(t, uint64(want.Len()), l.WriteOffset())
	assert.Equal(t, want.String(), string(l.ReadRange(0, l.WriteOffset())))
}

func TestRingLog_AppendEmptyIsNoop(t *testing.T) {
	l := NewRingLog(4)

	assert.Equal(t, 0, l.Append(nil))
	assert.Equal(t, 0, l.Append([]byte{}))
	assert.Equal(t, uint64(0), l.WriteOffset())
}

func TestRingLog_Overwrite(t *testing.T) {
	l := NewRingLog(8)

	l.Append([]byte("abcde"))
	l.Append([]byte("fghij")) // wraps, evicts "ab"
	l.Append([]byte("k"))     // evicts "c"

	data, offset := l.Snapshot()
	assert.Equal(t, "defghijk", string(data))
	assert.Equal(t, uint64(11), offset)
	assert.Equal(t, uint64(3), l.Floor())
	assert.Equal(t, 8, l.Len())
}

func TestRingLog_OversizedAppendKeepsTail(t *testing.T) {
	l := NewRingLog(4)
	l.Append([]byte("xy"))

	n := l.Append([]byte("0123456789"))

	assert.Equal(t, 4, n)
	assert.Equal(t, uint64(6), l.WriteOffset())
	data, _ := l.Snapshot()
	assert.Equal(t, "6789", string(data))
}

func TestRingLog_ReadRangeAcrossWrap(t *testing.T) {
	l := NewRingLog(6)
	l.Append([]byte("abcd"))
	l.Append([]byte("efgh")) // physical buffer now "ghcdef"

	assert.Equal(t, "defg", string(l.ReadRange(3, 7)))
	assert.Equal(t, "cdefgh", string(l.ReadRange(2, 8)))
	assert.Empty(t, l.ReadRange(8, 8))
}

func TestRingLog_ConcreteScenario(t *testing.T) {
	l := NewRingLog(16)

	l.Append([]byte("HELLOWORLD"))
	history, cursor := l.Snapshot()
	require.Equal(t, "HELLOWORLD", string(history))
	require.Equal(t, uint64(10), cursor)

	l.Append([]byte("1234567890"))
	require.Equal(t, uint64(20), l.WriteOffset())
	require.Equal(t, uint64(4), l.Floor())

	retained, _ := l.Snapshot()
	assert.Equal(t, "OWORLD1234567890", string(retained))
	assert.Equal(t, "1234567890", string(l.ReadRange(cursor, 20)))
}

func TestRingLog_ReadRangeInvariantViolations(t *testing.T) {
	l := NewRingLog(4)
	l.Append([]byte("abcdef"))

	tests := []struct {
		name     string
		from, to uint64
	}{
		{"inverted", 5, 4},
		{"beyond write offset", 4, 7},
		{"overwritten start", 1, 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Panics(t, func() { l.ReadRange(tc.from, tc.to) })
		})
	}
}

func TestRingLog_ReadDelta(t *testing.T) {
	l := NewRingLog(8)
	l.Append([]byte("abc"))
	c := NewCursor(1)

	data, end, skipped := l.ReadDelta(c)
	assert.Equal(t, "bc", string(data))
	assert.Equal(t, uint64(3), end)
	assert.Zero(t, skipped)
	assert.Equal(t, uint64(1), c.Position(), "ReadDelta must not advance the cursor")

	c.Advance(end)
	data, end, _ = l.ReadDelta(c)
	assert.Empty(t, data)
	assert.Equal(t, uint64(3), end)
}

func TestRingLog_ReadDeltaClampsOverrun(t *testing.T) {
	l := NewRingLog(4)
	c := NewCursor(0)
	l.Append([]byte("0123"))
	l.Append([]byte("4567"))
	l.Append([]byte("89")) // offsets 6..10 retained

	data, end, skipped := l.ReadDelta(c)

	assert.Equal(t, "6789", string(data))
	assert.Equal(t, uint64(10), end)
	assert.Equal(t, uint64(6), skipped)
	assert.Equal(t, uint64(6), c.Position())
}

func TestRingLog_NoMissedBytesUnderConcurrentAppend(t *testing.T) {
	const writers, perWriter = 8, 200
	l := NewRingLog(writers * perWriter * 8)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				l.Append([]byte(fmt.Sprintf("%d:%03d;", w, i)))
			}
		}(w)
	}

	// A reader chasing the write offset must see each byte exactly once
	var got bytes.Buffer
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	var last uint64
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		w := l.WriteOffset()
		got.Write(l.ReadRange(last, w))
		last = w
	}

	assert.Equal(t, string(l.ReadRange(0, l.WriteOffset())), got.String())
	assert.Equal(t, writers*perWriter*len("0:000;"), got.Len())
}
