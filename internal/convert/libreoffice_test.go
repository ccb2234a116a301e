package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRunner 模拟 libreoffice：在 --outdir 下写出 PDF
type fakeRunner struct {
	lookErr error
	runErr  error
	output  []byte
	block   bool

	name string
	args []string
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	if f.lookErr != nil {
		return "", f.lookErr
	}
	return "/usr/bin/" + file, nil
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.name, f.args = name, args
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.runErr != nil {
		return []byte("boom"), f.runErr
	}
	if f.output != nil {
		dir := args[len(args)-2]
		if err := os.WriteFile(filepath.Join(dir, "deck.pdf"), f.output, 0o600); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func newTestConverter(r runner, timeout time.Duration) *LibreOffice {
	l := NewLibreOffice("soffice", timeout, zap.NewNop())
	l.run = r
	return l
}

func TestToPDF(t *testing.T) {
	r := &fakeRunner{output: []byte("%PDF-1.7")}
	l := newTestConverter(r, time.Second)

	pdf, err := l.ToPDF(context.Background(), []byte("pptx"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), pdf)

	assert.Equal(t, "soffice", r.name)
	require.Len(t, r.args, 7)
	assert.Equal(t, "-env:UserInstallation=file://"+filepath.ToSlash(filepath.Join(r.args[5], "profile")), r.args[0])
	assert.Equal(t, []string{"--headless", "--convert-to", "pdf", "--outdir"}, r.args[1:5])
	assert.Equal(t, "deck.pptx", filepath.Base(r.args[6]))

	// 临时目录已清理
	_, err = os.Stat(r.args[5])
	assert.True(t, os.IsNotExist(err))
}

func TestToPDFSeparateProfiles(t *testing.T) {
	r := &fakeRunner{output: []byte("%PDF-1.7")}
	l := newTestConverter(r, time.Second)

	_, err := l.ToPDF(context.Background(), []byte("pptx"))
	require.NoError(t, err)
	first := r.args[0]

	_, err = l.ToPDF(context.Background(), []byte("pptx"))
	require.NoError(t, err)
	assert.NotEqual(t, first, r.args[0])
}

func TestToPDFErrors(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
	}{
		{"command fails", &fakeRunner{runErr: errors.New("exit status 1")}},
		{"no output", &fakeRunner{}},
		{"empty output", &fakeRunner{output: []byte{}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestConverter(tc.runner, time.Second)
			_, err := l.ToPDF(context.Background(), []byte("pptx"))
			assert.ErrorIs(t, err, ErrConversionFailed)
		})
	}
}

func TestToPDFTimeout(t *testing.T) {
	l := newTestConverter(&fakeRunner{block: true}, 20*time.Millisecond)
	_, err := l.ToPDF(context.Background(), []byte("pptx"))
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestAvailable(t *testing.T) {
	assert.True(t, newTestConverter(&fakeRunner{}, time.Second).Available())
	assert.False(t, newTestConverter(&fakeRunner{lookErr: errors.New("not found")}, time.Second).Available())
}

func TestNewLibreOfficeDefaults(t *testing.T) {
	l := NewLibreOffice("", 0, zap.NewNop())
	assert.Equal(t, "libreoffice", l.bin)
	assert.Equal(t, 120*time.Second, l.timeout)
}
