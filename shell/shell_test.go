package shell

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/lithos-os/lithos"
	"github.com/lithos-os/lithos/console"
	"github.com/lithos-os/lithos/file_systems/ramfs"
	"github.com/lithos-os/lithos/task/keyboard"
	"github.com/lithos-os/lithos/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bootOnce sync.Once

func bootKernel(t *testing.T) {
	t.Helper()
	bootOnce.Do(func() {
		vfs.Init(ramfs.New().Root())
	})
}

// run executes a command and returns what it printed.
func run(s *Shell, line string) string {
	var out bytes.Buffer
	prev := console.SetWriter(&out)
	defer console.SetWriter(prev)
	s.Execute(line)
	return out.String()
}

func TestMkdirTouchLs(t *testing.T) {
	bootKernel(t)
	s := New()

	assert.Empty(t, run(s, "mkdir /projects"))
	assert.Empty(t, run(s, "mkdir /projects/os"))
	assert.Empty(t, run(s, "touch /projects/os/notes.txt"))

	out := run(s, "ls /projects/os")
	assert.Contains(t, out, "notes.txt")

	out = run(s, "mkdir /projects")
	assert.Contains(t, out, "mkdir:", "duplicate mkdir must report the error")
}

func TestCdAndPwd(t *testing.T) {
	bootKernel(t)
	s := New()

	assert.Equal(t, "/\n", run(s, "pwd"))

	run(s, "mkdir /cd-target")
	assert.Empty(t, run(s, "cd /cd-target"))
	assert.Equal(t, "/cd-target\n", run(s, "pwd"))
	assert.Equal(t, "/cd-target$ ", s.Prompt())

	out := run(s, "cd relative")
	assert.Contains(t, out, "absolute")

	out = run(s, "cd /missing-dir")
	assert.Contains(t, out, "cd:")

	// cd with no argument returns to the root.
	run(s, "cd")
	assert.Equal(t, "/\n", run(s, "pwd"))
}

func TestLsUsesCwd(t *testing.T) {
	bootKernel(t)
	s := New()

	run(s, "mkdir /lscwd")
	run(s, "touch /lscwd/here.txt")
	run(s, "cd /lscwd")

	out := run(s, "ls")
	assert.Contains(t, out, "here.txt")
}

func TestCatAndEcho(t *testing.T) {
	bootKernel(t)
	s := New()

	run(s, "mkdir /cat-test")
	run(s, "touch /cat-test/f.txt")

	fd, err := vfs.Open("/cat-test/f.txt", lithos.ReadWrite())
	require.NoError(t, err)
	_, err = vfs.Write(fd, []byte("file contents here"))
	require.NoError(t, err)
	require.NoError(t, vfs.Close(fd))

	assert.Equal(t, "file contents here", run(s, "cat /cat-test/f.txt"))
	assert.Contains(t, run(s, "cat /cat-test/missing"), "cat:")
	assert.Equal(t, "hello world\n", run(s, "echo hello world"))
}

func TestStat(t *testing.T) {
	bootKernel(t)
	s := New()

	run(s, "mkdir /stat-test")
	out := run(s, "stat /stat-test")
	assert.Contains(t, out, "directory")
	assert.Contains(t, out, "0755")
}

func TestUnknownCommand(t *testing.T) {
	bootKernel(t)
	s := New()
	assert.Contains(t, run(s, "frobnicate"), "Unknown command")
}

func TestEmptyLineIsSilent(t *testing.T) {
	bootKernel(t)
	s := New()
	assert.Empty(t, run(s, ""))
	assert.Empty(t, run(s, "   "))
}

func TestHelpListsCommands(t *testing.T) {
	bootKernel(t)
	s := New()
	out := run(s, "help")
	for _, cmd := range []string{"ls", "pwd", "cd", "mkdir", "touch", "cat", "echo"} {
		assert.Contains(t, out, cmd)
	}
}

func TestHandleKeyAssemblesLines(t *testing.T) {
	bootKernel(t)
	s := New()

	var out bytes.Buffer
	prev := console.SetWriter(&out)
	defer console.SetWriter(prev)

	typeString := func(text string) {
		for _, r := range text {
			s.HandleKey(keyboard.Key{Rune: r})
		}
	}

	typeString("mkdir /typed")
	s.HandleKey(keyboard.Key{Rune: '\n'})
	typeString("ls /")
	s.HandleKey(keyboard.Key{Rune: '\n'})

	assert.Contains(t, out.String(), "typed", "typed commands must execute")
	assert.True(t, strings.HasSuffix(out.String(), s.Prompt()),
		"a fresh prompt follows every command")
}

func TestHandleKeyBackspace(t *testing.T) {
	bootKernel(t)
	s := New()

	var out bytes.Buffer
	prev := console.SetWriter(&out)
	defer console.SetWriter(prev)

	for _, r := range "lx" {
		s.HandleKey(keyboard.Key{Rune: r})
	}
	s.HandleKey(keyboard.Key{Name: "Backspace"})
	s.HandleKey(keyboard.Key{Rune: 's'})
	s.HandleKey(keyboard.Key{Rune: ' '})
	s.HandleKey(keyboard.Key{Rune: '/'})
	s.HandleKey(keyboard.Key{Rune: '\n'})

	// The erased 'x' never reached the parser: "ls /" ran.
	assert.NotContains(t, out.String(), "Unknown command")
}
