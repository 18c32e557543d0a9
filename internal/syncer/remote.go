package syncer

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"

	"github.com/sandeepkv93/remindd/internal/model"
)

const (
	snapshotFile = "remindd.json"
	lockFile     = "remindd.lock"
	probeFile    = ".remindd-probe"

	lockTTL = 2 * time.Minute
)

// LockInfo is the advisory lock written next to the remote snapshot.
// ExpiresAt is unix milliseconds so every platform reads it the same way.
type LockInfo struct {
	DeviceID  string `json:"deviceId"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (l LockInfo) Expired(now time.Time) bool {
	return now.UnixMilli() >= l.ExpiresAt
}

// Remote is the endpoint a sync cycle talks to. ReadSnapshot and
// ReadLock report absence instead of failing so a first sync and a
// stale lock are not error paths.
type Remote interface {
	Probe() error
	ReadSnapshot() (data []byte, found bool, err error)
	WriteSnapshot(data []byte) error
	ReadLock() (*LockInfo, error)
	WriteLock(info LockInfo) error
	RemoveLock() error
}

type webdavRemote struct {
	client *gowebdav.Client
	root   string
}

// NewWebDAVRemote builds a Remote over plain WebDAV. All state lives in
// two files under the configured root, so any compliant server works.
func NewWebDAVRemote(s model.SyncSettings) Remote {
	client := gowebdav.NewClient(strings.TrimRight(s.URL, "/"), s.Username, s.Password)
	return &webdavRemote{client: client, root: path.Join("/", s.RootPath)}
}

func (r *webdavRemote) path(name string) string {
	return path.Join(r.root, name)
}

// Probe verifies the endpoint is reachable and writable without
// touching the snapshot or the lock.
func (r *webdavRemote) Probe() error {
	if err := r.client.Connect(); err != nil {
		return fmt.Errorf("syncer: webdav connect: %w", err)
	}
	if err := r.ensureRoot(); err != nil {
		return err
	}
	p := r.path(probeFile)
	if err := r.client.Write(p, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("syncer: webdav write probe: %w", err)
	}
	if err := r.client.Remove(p); err != nil && !gowebdav.IsErrNotFound(err) {
		return fmt.Errorf("syncer: webdav remove probe: %w", err)
	}
	return nil
}

func (r *webdavRemote) ReadSnapshot() ([]byte, bool, error) {
	data, err := r.client.Read(r.path(snapshotFile))
	if gowebdav.IsErrNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("syncer: webdav read snapshot: %w", err)
	}
	return data, true, nil
}

func (r *webdavRemote) WriteSnapshot(data []byte) error {
	if err := r.ensureRoot(); err != nil {
		return err
	}
	if err := r.client.Write(r.path(snapshotFile), data, 0o644); err != nil {
		return fmt.Errorf("syncer: webdav write snapshot: %w", err)
	}
	return nil
}

// ReadLock returns nil for a missing or unreadable lock file. A lock we
// cannot parse must not wedge sync forever, it gets overwritten.
func (r *webdavRemote) ReadLock() (*LockInfo, error) {
	data, err := r.client.Read(r.path(lockFile))
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("syncer: webdav read lock: %w", err)
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil || info.DeviceID == "" {
		return nil, nil
	}
	return &info, nil
}

func (r *webdavRemote) WriteLock(info LockInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("syncer: encode lock: %w", err)
	}
	if err := r.ensureRoot(); err != nil {
		return err
	}
	if err := r.client.Write(r.path(lockFile), data, 0o644); err != nil {
		return fmt.Errorf("syncer: webdav write lock: %w", err)
	}
	return nil
}

func (r *webdavRemote) RemoveLock() error {
	if err := r.client.Remove(r.path(lockFile)); err != nil && !gowebdav.IsErrNotFound(err) {
		return fmt.Errorf("syncer: webdav remove lock: %w", err)
	}
	return nil
}

func (r *webdavRemote) ensureRoot() error {
	if r.root != "/" {
		// Some servers reject MKCOL on an existing collection, so a
		// failure here only matters if the following write fails too.
		_ = r.client.MkdirAll(r.root, 0o755)
	}
	return nil
}

// TestConnection runs a read/write probe against the configured
// endpoint. It never touches local data.
func TestConnection(s model.SyncSettings) (bool, string) {
	if s.URL == "" {
		return false, "no WebDAV URL configured"
	}
	if err := NewWebDAVRemote(s).Probe(); err != nil {
		return false, err.Error()
	}
	return true, "connection ok"
}
