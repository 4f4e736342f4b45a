package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipients.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	rs, err := LoadFile(path)
	require.NoError(t, err)
	m := NewMemory(rs...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Watch(ctx, path, m))

	count := func() int {
		n, _ := m.Count(context.Background())
		return n
	}

	// A broken file keeps the previous content.
	require.NoError(t, os.WriteFile(path, []byte("recipients: ["), 0o644))
	time.Sleep(2 * reloadDebounce)
	assert.Equal(t, 2, count())

	updated := sampleYAML + "  - id: user-3\n    name: Bob Wilson\n    categories: [FINANCE]\n    channels: [SMS]\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool { return count() == 3 }, 5*time.Second, 50*time.Millisecond)
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "recipients.yaml"), NewMemory())
	assert.Error(t, err)
}
