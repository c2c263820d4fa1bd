package sink

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petriborg/follow/pkg/core"
)

func sample() core.TimestampedLine {
	return core.TimestampedLine{
		SourceID:  "file:/var/log/syslog",
		Timestamp: time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC),
		Seq:       7,
		Raw:       "Mar 10 11:00:00 host boot",
		Rendered:  "\x1b[31mMar\x1b[39;49;00m 10 11:00:00 host boot",
	}
}

func TestWriterEmitsRendered(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Emit(sample()))
	require.NoError(t, w.Emit(core.TimestampedLine{Rendered: "second"}))
	assert.Equal(t, sample().Rendered+"\nsecond\n", buf.String())
}

func TestJSONEmitsRecord(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf)
	require.NoError(t, j.Emit(sample()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)

	var got map[string]any
	require.NoError(t, sonic.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "2026-03-10T11:00:00Z", got["timestamp"])
	assert.Equal(t, "file:/var/log/syslog", got["source"])
	assert.Equal(t, "Mar 10 11:00:00 host boot", got["line"])
	assert.EqualValues(t, 7, got["seq"])
}
