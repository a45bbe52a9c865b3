// Package templates holds the tone-block template and the four master
// prompts, persisted as a single JSON record.
package templates

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sant0-9/soapflow/internal/asmr"
)

// StorageKey is the fixed key the template set is stored under
const StorageKey = "soapASMRTemplates_v2"

// ToneBlockMarker is the placeholder master prompts carry for tone-block details
const ToneBlockMarker = "{{TONE_BLOCK}}"

var ErrUnknownContentType = errors.New("unknown content type")

//go:embed defaults/*.md
var defaultFiles embed.FS

var defaultFileNames = map[asmr.ContentType]string{
	asmr.DustCore:    "defaults/dust_core.md",
	asmr.ClayCore:    "defaults/clay_core.md",
	asmr.StarchCore:  "defaults/starch_core.md",
	asmr.CuttingSoap: "defaults/cutting_soap.md",
}

// PromptTemplates is the full editable template set
type PromptTemplates struct {
	ToneBlockTemplate string                      `json:"toneBlockTemplate"`
	MasterPrompts     map[asmr.ContentType]string `json:"masterPrompts"`
}

// Clone returns a copy that shares no maps with p
func (p PromptTemplates) Clone() PromptTemplates {
	return PromptTemplates{
		ToneBlockTemplate: p.ToneBlockTemplate,
		MasterPrompts:     maps.Clone(p.MasterPrompts),
	}
}

// Defaults returns the built-in template set
func Defaults() PromptTemplates {
	p := PromptTemplates{
		ToneBlockTemplate: mustRead("defaults/tone_block.md"),
		MasterPrompts:     make(map[asmr.ContentType]string, len(asmr.ContentTypes)),
	}
	for _, t := range asmr.ContentTypes {
		p.MasterPrompts[t] = mustRead(defaultFileNames[t])
	}
	return p
}

func mustRead(name string) string {
	data, err := defaultFiles.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("templates: missing embedded default %s: %v", name, err))
	}
	return strings.TrimSpace(string(data))
}

// KV persists raw records by key
type KV interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Patch is a partial change: the tone-block template, one master prompt, or both
type Patch struct {
	ToneBlockTemplate *string
	ContentType       asmr.ContentType
	MasterPrompt      *string
}

// SetToneBlock returns a patch replacing the tone-block template
func SetToneBlock(text string) Patch {
	return Patch{ToneBlockTemplate: &text}
}

// SetMasterPrompt returns a patch replacing one master prompt
func SetMasterPrompt(t asmr.ContentType, text string) Patch {
	return Patch{ContentType: t, MasterPrompt: &text}
}

// Store owns the current template set and writes every change through to KV
type Store struct {
	mu      sync.RWMutex
	kv      KV
	current PromptTemplates
	log     logrus.FieldLogger
}

// NewStore starts with the defaults; call Load to pick up saved templates
func NewStore(kv KV, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		kv:      kv,
		current: Defaults(),
		log:     log.WithField("component", "templates"),
	}
}

// Load reads the persisted set. Absent or unreadable records fall back to
// the defaults; entries missing from an older record are filled from them.
func (s *Store) Load(ctx context.Context) PromptTemplates {
	loaded := Defaults()

	data, ok, err := s.kv.Get(ctx, StorageKey)
	switch {
	case err != nil:
		s.log.WithError(err).Warn("failed to read saved templates, using defaults")
	case !ok:
		s.log.Debug("no saved templates, using defaults")
	default:
		var saved savedTemplates
		if err := json.Unmarshal(data, &saved); err != nil {
			s.log.WithError(err).Warn("saved templates are corrupt, using defaults")
			break
		}
		loaded = merge(loaded, saved)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	return loaded.Clone()
}

// savedTemplates tells an absent tone template apart from one saved empty
type savedTemplates struct {
	ToneBlockTemplate *string                     `json:"toneBlockTemplate"`
	MasterPrompts     map[asmr.ContentType]string `json:"masterPrompts"`
}

func merge(base PromptTemplates, saved savedTemplates) PromptTemplates {
	if saved.ToneBlockTemplate != nil {
		base.ToneBlockTemplate = *saved.ToneBlockTemplate
	}
	for t, text := range saved.MasterPrompts {
		if t.Valid() {
			base.MasterPrompts[t] = text
		}
	}
	return base
}

// Current returns a copy of the in-memory set
func (s *Store) Current() PromptTemplates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update applies p and persists the full set
func (s *Store) Update(ctx context.Context, p Patch) (PromptTemplates, error) {
	if p.MasterPrompt != nil && !p.ContentType.Valid() {
		return s.Current(), fmt.Errorf("%w: %q", ErrUnknownContentType, p.ContentType)
	}

	s.mu.Lock()
	next := s.current.Clone()
	if p.ToneBlockTemplate != nil {
		next.ToneBlockTemplate = *p.ToneBlockTemplate
	}
	if p.MasterPrompt != nil {
		next.MasterPrompts[p.ContentType] = *p.MasterPrompt
	}
	s.current = next
	s.mu.Unlock()

	return next.Clone(), s.save(ctx, next)
}

// Reset restores the built-in set and persists it
func (s *Store) Reset(ctx context.Context) (PromptTemplates, error) {
	defaults := Defaults()

	s.mu.Lock()
	s.current = defaults
	s.mu.Unlock()

	return defaults.Clone(), s.save(ctx, defaults)
}

func (s *Store) save(ctx context.Context, p PromptTemplates) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("failed to save templates: %w", err)
	}
	return nil
}

// HasMarker reports whether a master prompt still carries the placeholder
func HasMarker(text string) bool {
	return strings.Contains(text, ToneBlockMarker)
}

// MemoryKV is a KV kept in memory
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
