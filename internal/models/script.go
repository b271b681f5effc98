package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ScriptStatus is the lifecycle state of a script in the library.
type ScriptStatus string

const (
	StatusDraft    ScriptStatus = "draft"
	StatusReady    ScriptStatus = "ready"
	StatusRejected ScriptStatus = "rejected"

	// Reserved states. Nothing produces or consumes them yet.
	StatusRecording ScriptStatus = "recording"
	StatusEditing   ScriptStatus = "editing"
	StatusPublished ScriptStatus = "published"
)

// Valid reports whether s is a declared status.
func (s ScriptStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusReady, StatusRejected, StatusRecording, StatusEditing, StatusPublished:
		return true
	}
	return false
}

// SegmentKey names one of the four structural parts of a script.
type SegmentKey string

const (
	SegmentOpening   SegmentKey = "a"
	SegmentUniverse  SegmentKey = "u"
	SegmentRetention SegmentKey = "r"
	SegmentAction    SegmentKey = "a_final"
)

// SegmentKeys lists the canonical segments in script order.
var SegmentKeys = []SegmentKey{SegmentOpening, SegmentUniverse, SegmentRetention, SegmentAction}

// Canonical reports whether k is one of the four segment keys.
func (k SegmentKey) Canonical() bool {
	switch k {
	case SegmentOpening, SegmentUniverse, SegmentRetention, SegmentAction:
		return true
	}
	return false
}

// Segment is a visual description paired with the spoken line.
type Segment struct {
	Visual string `json:"visual"`
	Audio  string `json:"audio"`
}

// ScriptContent holds the four segments. It is stored as JSONB.
type ScriptContent struct {
	A      Segment `json:"a"`
	U      Segment `json:"u"`
	R      Segment `json:"r"`
	AFinal Segment `json:"a_final"`
}

// Segment returns the segment stored under key.
func (c ScriptContent) Segment(key SegmentKey) (Segment, bool) {
	switch key {
	case SegmentOpening:
		return c.A, true
	case SegmentUniverse:
		return c.U, true
	case SegmentRetention:
		return c.R, true
	case SegmentAction:
		return c.AFinal, true
	}
	return Segment{}, false
}

// WithSegment returns a copy of c with key replaced by seg.
func (c ScriptContent) WithSegment(key SegmentKey, seg Segment) (ScriptContent, error) {
	switch key {
	case SegmentOpening:
		c.A = seg
	case SegmentUniverse:
		c.U = seg
	case SegmentRetention:
		c.R = seg
	case SegmentAction:
		c.AFinal = seg
	default:
		return c, fmt.Errorf("unknown segment key %q", key)
	}
	return c, nil
}

// Value implements driver.Valuer.
func (c ScriptContent) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *ScriptContent) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*c = ScriptContent{}
		return nil
	default:
		return errors.New("script content: unsupported source type")
	}
	return json.Unmarshal(data, c)
}

// Script is one generated artifact in a profile's library.
type Script struct {
	ID        string        `json:"id" db:"id"`
	ProfileID string        `json:"profile_id" db:"profile_id"`
	HookType  string        `json:"hook_type" db:"hook_type"`
	Content   ScriptContent `json:"content" db:"content"`
	Status    ScriptStatus  `json:"status" db:"status"`
	IsViral   bool          `json:"is_viral" db:"is_viral"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// ExampleSource identifies which pool the reference examples came from.
type ExampleSource string

const (
	SourceNone  ExampleSource = ""
	SourceViral ExampleSource = "viral"
	SourceReady ExampleSource = "ready"
)
