package backlog

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

const recordHeaderLen = 12

// FileBacklog persists undelivered snapshots in an append-only log plus a
// small meta file recording the last delivered entry id. Entries are framed
// as [8 bytes id][4 bytes len][len bytes json]; a torn tail record is
// truncated away on open, so a power cut mid-append costs at most the entry
// being written, never an already-appended one.
type FileBacklog struct {
	mu        sync.Mutex
	path      string
	metaPath  string
	file      *os.File
	writer    *bufio.Writer
	nextID    uint64
	delivered uint64
	sizeBytes int64
}

// New opens the backlog in dir, creating it if needed. When the on-disk
// state cannot be opened it is reformatted (wiped and recreated) once; an
// error after the reformat attempt is fatal to the caller.
func New(dir string) (*FileBacklog, error) {
	b, err := open(dir)
	if err == nil {
		return b, nil
	}

	if rerr := reformat(dir); rerr != nil {
		return nil, fmt.Errorf("backlog open: %w (reformat also failed: %v)", err, rerr)
	}
	b, rerr := open(dir)
	if rerr != nil {
		return nil, fmt.Errorf("backlog unusable after reformat: %w", rerr)
	}
	return b, nil
}

func open(dir string) (*FileBacklog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "backlog.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	b := &FileBacklog{
		path:     path,
		metaPath: filepath.Join(dir, "backlog.meta"),
		file:     f,
		writer:   bufio.NewWriterSize(f, 64<<10),
	}
	if err := b.bootstrap(); err != nil {
		f.Close()
		return nil, err
	}
	return b, nil
}

func reformat(dir string) error {
	for _, name := range []string{"backlog.log", "backlog.meta"} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (b *FileBacklog) bootstrap() error {
	if err := b.scanExisting(); err != nil {
		return err
	}
	if err := b.loadDelivered(); err != nil {
		return err
	}
	if b.delivered > b.nextID {
		return fmt.Errorf("backlog meta ahead of log: delivered=%d last=%d", b.delivered, b.nextID)
	}
	_, err := b.file.Seek(0, io.SeekEnd)
	return err
}

func (b *FileBacklog) scanExisting() error {
	stat, err := os.Stat(b.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err != nil || stat.Size() == 0 {
		return nil
	}

	rf, err := os.Open(b.path)
	if err != nil {
		return err
	}
	defer rf.Close()

	reader := bufio.NewReader(rf)
	var (
		offset int64
		lastID uint64
	)

	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(reader, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				if err := b.file.Truncate(offset); err != nil {
					return err
				}
				break
			}
			return fmt.Errorf("backlog scan header: %w", err)
		}
		id := binary.BigEndian.Uint64(hdr[0:8])
		length := binary.BigEndian.Uint32(hdr[8:12])
		recEnd := offset + recordHeaderLen

		if length > 0 {
			if _, err := io.CopyN(io.Discard, reader, int64(length)); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					if err := b.file.Truncate(offset); err != nil {
						return err
					}
					break
				}
				return fmt.Errorf("backlog scan body: %w", err)
			}
			recEnd += int64(length)
		}
		offset = recEnd
		lastID = id
	}

	if err := b.file.Truncate(offset); err != nil {
		return err
	}
	b.sizeBytes = offset
	b.nextID = lastID
	return nil
}

func (b *FileBacklog) loadDelivered() error {
	data, err := os.ReadFile(b.metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	val := strings.TrimSpace(string(data))
	if val == "" {
		return nil
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return fmt.Errorf("backlog meta parse: %w", err)
	}
	b.delivered = u
	return nil
}

func (b *FileBacklog) Append(snap domain.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID + 1

	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], id)
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(body)))

	if _, err := b.writer.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := b.writer.Write(body); err != nil {
		return err
	}
	// one flush+sync per append: the no-loss invariant needs every entry on
	// stable storage before the cycle moves on
	if err := b.writer.Flush(); err != nil {
		return err
	}
	if err := b.file.Sync(); err != nil {
		return err
	}

	b.nextID = id
	b.sizeBytes += int64(len(body) + recordHeaderLen)
	return nil
}

func (b *FileBacklog) HasPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nextID > b.delivered
}

// Oldest returns the head undelivered snapshot without removing it.
func (b *FileBacklog) Oldest() (domain.Snapshot, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.nextID <= b.delivered {
		return domain.Snapshot{}, false, nil
	}

	f, err := os.Open(b.path)
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return domain.Snapshot{}, false, nil
			}
			return domain.Snapshot{}, false, fmt.Errorf("backlog read header: %w", err)
		}
		id := binary.BigEndian.Uint64(hdr[0:8])
		length := binary.BigEndian.Uint32(hdr[8:12])

		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("backlog read body: %w", err)
		}
		if id <= b.delivered {
			continue
		}

		var snap domain.Snapshot
		if err := json.Unmarshal(body, &snap); err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("corrupt backlog entry %d: %w", id, err)
		}
		return snap, true, nil
	}
}

// DeleteOldest marks the head entry delivered. Once every entry has been
// delivered the log file is compacted back to zero length.
func (b *FileBacklog) DeleteOldest() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.nextID <= b.delivered {
		return nil
	}
	b.delivered++

	if b.delivered == b.nextID {
		return b.compactLocked()
	}
	return b.persistMetaLocked()
}

func (b *FileBacklog) Stats() ports.BacklogStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ports.BacklogStats{
		Pending:   int(b.nextID - b.delivered),
		SizeBytes: b.sizeBytes,
	}
}

func (b *FileBacklog) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.writer.Flush(); err != nil {
		return err
	}
	return b.file.Close()
}

func (b *FileBacklog) persistMetaLocked() error {
	return os.WriteFile(b.metaPath, []byte(fmt.Sprintf("%d\n", b.delivered)), 0o644)
}

// compactLocked resets the fully-drained log so ids and file size do not
// grow without bound across the process lifetime.
func (b *FileBacklog) compactLocked() error {
	if err := b.file.Truncate(0); err != nil {
		return err
	}
	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	b.writer.Reset(b.file)
	b.nextID = 0
	b.delivered = 0
	b.sizeBytes = 0
	return b.persistMetaLocked()
}

var _ ports.Backlog = (*FileBacklog)(nil)
