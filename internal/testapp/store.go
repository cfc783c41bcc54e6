package testapp

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Setting is one site configuration switch.
type Setting struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// Backup is a snapshot of a collection taken after every change.
type Backup struct {
	Filename string    `json:"filename"`
	Created  time.Time `json:"created"`
	Content  string    `json:"content"`
}

// Size is the snapshot size for display.
func (b *Backup) Size() string {
	n := len(b.Content)
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}

// Date is the creation time for display.
func (b *Backup) Date() string {
	return b.Created.UTC().Format("2006-01-02 15:04:05")
}

// Store keeps the panel's data in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	records  map[string][]*Record
	settings []Setting
	backups  []*Backup
}

func defaultSettings() []Setting {
	return []Setting{
		{Key: "showBlog", Label: "Show Blog Section", Enabled: true},
		{Key: "showPortfolio", Label: "Show Portfolio Section", Enabled: true},
		{Key: "showGallery", Label: "Show Gallery Section", Enabled: true},
		{Key: "showTimeline", Label: "Show Timeline", Enabled: true},
		{Key: "enableChat", Label: "Enable Chat Assistant", Enabled: false},
		{Key: "maintenanceMode", Label: "Maintenance Mode", Enabled: false},
	}
}

// NewStore returns an empty store. now defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:      now,
		records:  map[string][]*Record{},
		settings: defaultSettings(),
	}
}

// List returns the records of r, newest first.
func (s *Store) List(r *Resource) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Record(nil), s.records[r.Path]...)
}

func (s *Store) find(r *Resource, key string) (int, bool) {
	for i, rec := range s.records[r.Path] {
		if rec.Key == key {
			return i, true
		}
	}
	return -1, false
}

// Create validates in and stores it as a new record.
func (s *Store) Create(r *Resource, in map[string]string) (*Record, error) {
	values, err := r.Normalize(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := uuid.NewString()
	if r.Key != "" {
		key = values[r.Key].(string)
		if _, dup := s.find(r, key); dup {
			f, _ := r.field(r.Key)
			return nil, fmt.Errorf("%s %q %w", f.Label, key, ErrDuplicate)
		}
	}
	rec := &Record{Key: key, Values: values, Created: s.now()}
	s.records[r.Path] = append([]*Record{rec}, s.records[r.Path]...)
	s.snapshot(r.Path)
	return rec, nil
}

// Update replaces the values of the record with key. The key field itself
// may change as long as it stays unique.
func (s *Store) Update(r *Resource, key string, in map[string]string) (*Record, error) {
	values, err := r.Normalize(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.find(r, key)
	if !ok {
		return nil, fmt.Errorf("%s %w", r.Name, ErrNotFound)
	}
	rec := s.records[r.Path][i]
	if r.Key != "" {
		newKey := values[r.Key].(string)
		if j, dup := s.find(r, newKey); dup && j != i {
			f, _ := r.field(r.Key)
			return nil, fmt.Errorf("%s %q %w", f.Label, newKey, ErrDuplicate)
		}
		rec.Key = newKey
	}
	rec.Values = values
	s.snapshot(r.Path)
	return rec, nil
}

func (s *Store) Delete(r *Resource, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.find(r, key)
	if !ok {
		return fmt.Errorf("%s %w", r.Name, ErrNotFound)
	}
	recs := s.records[r.Path]
	s.records[r.Path] = append(recs[:i:i], recs[i+1:]...)
	s.snapshot(r.Path)
	return nil
}

func (s *Store) Settings() []Setting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Setting(nil), s.settings...)
}

// SaveSettings applies enabled by key; unknown keys are ignored.
func (s *Store) SaveSettings(enabled map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.settings {
		if v, ok := enabled[s.settings[i].Key]; ok {
			s.settings[i].Enabled = v
		}
	}
	s.snapshot("siteConfig")
}

// Backups returns snapshots, newest first.
func (s *Store) Backups() []*Backup {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Backup, 0, len(s.backups))
	for i := len(s.backups) - 1; i >= 0; i-- {
		out = append(out, s.backups[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out
}

// Backup finds a snapshot by filename, preferring the newest.
func (s *Store) Backup(filename string) (*Backup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.backups) - 1; i >= 0; i-- {
		if s.backups[i].Filename == filename {
			return s.backups[i], true
		}
	}
	return nil, false
}

// snapshot records the current state of collection. Callers hold mu.
func (s *Store) snapshot(collection string) {
	var data any = s.records[collection]
	if collection == "siteConfig" {
		data = s.settings
	}
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		content = []byte("null")
	}
	ts := s.now()
	s.backups = append(s.backups, &Backup{
		Filename: fmt.Sprintf("%s_%s.json", collection, ts.UTC().Format("2006-01-02T15-04-05.000")),
		Created:  ts,
		Content:  string(content),
	})
}
