package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type stubRunner struct {
	mu     sync.Mutex
	calls  []call
	handle func(name string, args []string) ([]byte, []byte, error)
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{name: name, args: args})
	s.mu.Unlock()
	return s.handle(name, args)
}

func (s *stubRunner) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.name)
	}
	return out
}

func newTestExtractor(t *testing.T, r Runner) *Extractor {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewExtractor(Config{WorkDir: t.TempDir()}, logger).WithRunner(r)
}

func TestRecognizeImage(t *testing.T) {
	r := &stubRunner{handle: func(name string, args []string) ([]byte, []byte, error) {
		require.Equal(t, "tesseract", name)
		require.Equal(t, "stdout", args[1])
		require.Equal(t, []string{"-l", "por"}, args[2:4])
		require.Equal(t, ".jpg", filepath.Ext(args[0]))
		return []byte("NOME: MARIA DA SILVA\n\n  CPF:\t529.982.247-25  \n"), nil, nil
	}}
	e := newTestExtractor(t, r)

	lines, err := e.Recognize(t.Context(), []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, []string{"NOME: MARIA DA SILVA", "CPF: 529.982.247-25"}, lines)
}

func TestRecognizeEmptyTextIsNotAnError(t *testing.T) {
	r := &stubRunner{handle: func(string, []string) ([]byte, []byte, error) { return nil, nil, nil }}
	lines, err := newTestExtractor(t, r).Recognize(t.Context(), []byte("x"), "image/png")
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestRecognizePDFTextLayer(t *testing.T) {
	r := &stubRunner{handle: func(name string, args []string) ([]byte, []byte, error) {
		require.Equal(t, "pdftotext", name)
		return []byte("linha 1\flinha 2\n"), nil, nil
	}}
	lines, err := newTestExtractor(t, r).Recognize(t.Context(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	require.Equal(t, []string{"linha 1", "linha 2"}, lines)
	require.Equal(t, []string{"pdftotext"}, r.names())
}

func TestRecognizeScannedPDFFallsBackToOCR(t *testing.T) {
	r := &stubRunner{}
	r.handle = func(name string, args []string) ([]byte, []byte, error) {
		switch name {
		case "pdftotext":
			return []byte("  \n\f"), nil, nil
		case "pdftoppm":
			prefix := args[len(args)-1]
			for _, p := range []string{"-1.png", "-2.png"} {
				require.NoError(t, os.WriteFile(prefix+p, []byte("png"), 0o600))
			}
			return nil, nil, nil
		case "tesseract":
			return []byte("pagina " + filepath.Base(args[0])), nil, nil
		}
		return nil, nil, errors.New("unexpected command " + name)
	}
	lines, err := newTestExtractor(t, r).Recognize(t.Context(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	require.Equal(t, []string{"pagina page-1.png", "pagina page-2.png"}, lines)
	require.Equal(t, []string{"pdftotext", "pdftoppm", "tesseract", "tesseract"}, r.names())
}

func TestRecognizeHEICConvertsFirst(t *testing.T) {
	r := &stubRunner{}
	r.handle = func(name string, args []string) ([]byte, []byte, error) {
		switch name {
		case "magick":
			require.NoError(t, os.WriteFile(args[1], []byte("png"), 0o600))
			return nil, nil, nil
		case "tesseract":
			require.Equal(t, "converted.png", filepath.Base(args[0]))
			return []byte("texto"), nil, nil
		}
		return nil, nil, errors.New("unexpected command " + name)
	}
	lines, err := newTestExtractor(t, r).Recognize(t.Context(), []byte("heic"), "image/heic")
	require.NoError(t, err)
	require.Equal(t, []string{"texto"}, lines)
}

func TestRecognizeUnsupportedContentType(t *testing.T) {
	r := &stubRunner{handle: func(string, []string) ([]byte, []byte, error) { return nil, nil, nil }}
	_, err := newTestExtractor(t, r).Recognize(t.Context(), []byte("x"), "text/plain")
	require.ErrorIs(t, err, ErrUnsupportedContent)
	require.Empty(t, r.names())
}

func TestRecognizeTesseractFailure(t *testing.T) {
	r := &stubRunner{handle: func(string, []string) ([]byte, []byte, error) {
		return nil, []byte("Error opening data file"), errors.New("exit status 1")
	}}
	_, err := newTestExtractor(t, r).Recognize(t.Context(), []byte("x"), "image/png")
	require.ErrorContains(t, err, "Error opening data file")
}

type fixedEngine []string

func (f fixedEngine) Recognize(context.Context, []byte, string) ([]string, error) { return f, nil }

func TestLazyLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	l := NewLazy(func(context.Context) (Engine, error) {
		loads.Add(1)
		return fixedEngine{"ok"}, nil
	}, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lines, err := l.Recognize(context.Background(), nil, "image/png")
			assert.NoError(t, err)
			assert.Equal(t, []string{"ok"}, lines)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), loads.Load())
}

func TestLazyRemembersLoadFailure(t *testing.T) {
	var loads atomic.Int32
	boom := errors.New("tesseract missing")
	l := NewLazy(func(context.Context) (Engine, error) {
		loads.Add(1)
		return nil, boom
	}, nil)

	for range 3 {
		_, err := l.Recognize(t.Context(), nil, "image/png")
		require.ErrorIs(t, err, boom)
	}
	require.Equal(t, int32(1), loads.Load())
}

func TestLazyIgnoresFirstCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	l := NewLazy(func(ctx context.Context) (Engine, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fixedEngine{"ok"}, nil
	}, nil)

	_, err := l.Recognize(ctx, nil, "image/png")
	require.NoError(t, err)
}

func TestLoadProbesTesseract(t *testing.T) {
	r := &stubRunner{handle: func(name string, args []string) ([]byte, []byte, error) {
		require.Equal(t, []string{"--version"}, args)
		return []byte("tesseract 5.3.0\n leptonica-1.82.0"), nil, nil
	}}
	require.NoError(t, newTestExtractor(t, r).Load(t.Context()))
}
