package upload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadSize - 업로드 허용 최대 크기 (10MB)
const MaxUploadSize = 10 << 20

var (
	ErrNotFound    = errors.New("uploaded file not found")
	ErrInvalidName = errors.New("invalid upload file name")
)

// StoredFile - 저장 결과
type StoredFile struct {
	Filename string
	Path     string
	Size     int64
}

// Reference - 디스크에서 읽은 참조 이미지
type Reference struct {
	Name     string
	Data     []byte
	MIMEType string
	Path     string
}

// Store - 업로드 디렉터리 관리
type Store struct {
	dir       string
	retention time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewStore - 디렉터리가 없으면 생성
func NewStore(dir string, retention time.Duration, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Store{dir: dir, retention: retention, log: log, now: time.Now}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save - <unixMillis>-<9자리 난수><ext> 이름으로 저장
func (s *Store) Save(originalName, mimeType string, r io.Reader) (*StoredFile, error) {
	filename := s.newFilename(originalName, mimeType)
	path := filepath.Join(s.dir, filename)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", filename, err)
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write %s: %w", filename, err)
	}

	s.log.Info("💾 [Upload] Stored reference image", "filename", filename, "bytes", n)
	return &StoredFile{Filename: filename, Path: path, Size: n}, nil
}

// Load - 저장된 파일 읽기. 디렉터리 밖을 가리키는 이름은 거부
func (s *Store) Load(name string) (*Reference, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}

	return &Reference{Name: name, Data: data, MIMEType: mimeType, Path: path}, nil
}

// Sweep - retention 보다 오래된 파일 삭제. 삭제한 개수 반환
func (s *Store) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // 다른 요청이 먼저 지운 경우
		}
		if now.Sub(info.ModTime()) <= s.retention {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info("🧹 [Upload] Swept expired files", "removed", removed)
	}
	return removed, errors.Join(errs...)
}

func (s *Store) newFilename(originalName, mimeType string) string {
	id := uuid.New()
	suffix := binary.BigEndian.Uint32(id[:4]) % 1_000_000_000

	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if !validExt(ext) {
		ext = ExtensionFor(mimeType)
	}
	return fmt.Sprintf("%d-%09d%s", s.now().UnixMilli(), suffix, ext)
}

// ExtensionFor - MIME 에 맞는 확장자 (모르면 .jpg)
func ExtensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

func validName(name string) bool {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
