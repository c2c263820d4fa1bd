package core

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceID(t *testing.T) {
	src := Source{Kind: KindFollow, Target: "root@web1:/var/log/messages"}
	assert.Equal(t, "follow:root@web1:/var/log/messages", src.ID())
}

func TestParseSourceID(t *testing.T) {
	tests := []struct {
		input      string
		wantKind   SourceKind
		wantTarget string
		wantError  bool
	}{
		{"file:/var/log/syslog", KindFile, "/var/log/syslog", false},
		{"follow:web1:/var/log/messages", KindFollow, "web1:/var/log/messages", false},
		{"journal:sshd.service", KindJournal, "sshd.service", false},
		{"command:dmesg -w", KindCommand, "dmesg -w", false},
		{"tail:/tmp/x", KindFollow, "/tmp/x", false},
		{"invalid", "", "", true},
		{"follow:", "", "", true},
		{"bogus:/tmp/x", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, target, err := ParseSourceID(tt.input)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantTarget, target)
		})
	}
}

func TestParseSourceIDRoundTrip(t *testing.T) {
	original := Source{Kind: KindCommand, Target: "ssh host dmesg"}
	kind, target, err := ParseSourceID(original.ID())
	require.NoError(t, err)
	assert.Equal(t, original, Source{Kind: kind, Target: target})
}

func TestTailLines(t *testing.T) {
	assert.Equal(t, 0, Source{}.TailLines())
	assert.Equal(t, 0, Source{Lines: -3}.TailLines())
	assert.Equal(t, 50, Source{Lines: 50}.TailLines())
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		input string
		want  Path
	}{
		{"/var/log/messages", Path{File: "/var/log/messages"}},
		{"web1:/var/log/messages", Path{Host: "web1", File: "/var/log/messages"}},
		{"root@web1:/var/log/messages", Path{User: "root", Host: "web1", File: "/var/log/messages"}},
		{"web1:log", Path{Host: "web1", File: "log"}},
		{"./dir:with/colon", Path{File: "./dir:with/colon"}},
		{"relative.log", Path{File: "relative.log"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParsePath(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
			assert.Equal(t, tt.want.Host != "", got.Remote())
		})
	}
}

func TestOpenErrorClassifies(t *testing.T) {
	src := Source{Kind: KindFile, Target: "/nope"}

	err := OpenError(src, fmt.Errorf("open /nope: %w", fs.ErrNotExist))
	var openErr *SourceOpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, "file:/nope", openErr.SourceID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	err = OpenError(src, fs.ErrPermission)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = OpenError(src, ErrConnectionFailed)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestTimestampedLineBefore(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := TimestampedLine{Timestamp: ts, Seq: 1}
	b := TimestampedLine{Timestamp: ts, Seq: 2}
	c := TimestampedLine{Timestamp: ts.Add(-time.Second), Seq: 3}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, c.Before(a))
}
