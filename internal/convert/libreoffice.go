package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ErrConversionFailed PDF转换失败
var ErrConversionFailed = errors.New("pdf conversion failed")

// runner 执行外部命令，测试时可替换
type runner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// LibreOffice 通过 LibreOffice 命令行把 PPTX 转为 PDF
type LibreOffice struct {
	bin     string
	timeout time.Duration
	run     runner
	logger  *zap.Logger
}

// NewLibreOffice 创建转换器，bin 为空时使用 libreoffice
func NewLibreOffice(bin string, timeout time.Duration, logger *zap.Logger) *LibreOffice {
	if bin == "" {
		bin = "libreoffice"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &LibreOffice{bin: bin, timeout: timeout, run: osRunner{}, logger: logger}
}

// Available 可执行文件是否在 PATH 中
func (l *LibreOffice) Available() bool {
	_, err := l.run.LookPath(l.bin)
	return err == nil
}

// ToPDF 转换 PPTX 字节，返回 PDF 字节
func (l *LibreOffice) ToPDF(ctx context.Context, pptx []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "sfapps-convert-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "deck.pptx")
	if err := os.WriteFile(input, pptx, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	out, err := l.run.Run(ctx, l.bin, profileArg(dir), "--headless", "--convert-to", "pdf", "--outdir", dir, input)
	if err != nil {
		l.logger.Warn("libreoffice failed",
			zap.Error(err),
			zap.ByteString("output", out),
			zap.Duration("elapsed", time.Since(start)))
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrConversionFailed, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "deck.pdf"))
	if err != nil {
		return nil, fmt.Errorf("%w: no output produced: %v", ErrConversionFailed, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrConversionFailed)
	}

	l.logger.Debug("converted deck to pdf", zap.Int("bytes", len(pdf)), zap.Duration("elapsed", time.Since(start)))
	return pdf, nil
}

// profileArg 每次转换使用独立的用户配置目录，并发转换不会争用默认配置
func profileArg(dir string) string {
	profile := &url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(dir, "profile"))}
	return "-env:UserInstallation=" + profile.String()
}
