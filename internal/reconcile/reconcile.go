// Package reconcile normalizes the model's script answer into one canonical
// structure.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/illegalcall/reelwriter/internal/models"
)

// DefaultHookType labels scripts whose answer carries no hook type.
const DefaultHookType = "AURA V3"

var (
	// ErrUnrecognizedShape means the answer is neither canonical nor flattened.
	ErrUnrecognizedShape = errors.New("unrecognized script structure")
	// ErrMissingOpening means the answer has no opening segment.
	ErrMissingOpening = errors.New("script is missing its opening segment")
	// ErrMissingSegment means a remix answer has no visual or audio text.
	ErrMissingSegment = errors.New("segment has neither visual nor audio")
)

// Shape tells how the model laid out the script segments.
type Shape int

const (
	// Canonical answers nest the segments under "content".
	Canonical Shape = iota + 1
	// Flattened answers put the segments at the top level.
	Flattened
)

func (s Shape) String() string {
	switch s {
	case Canonical:
		return "canonical"
	case Flattened:
		return "flattened"
	default:
		return "unknown"
	}
}

// Envelope is a decoded answer tagged with its shape. Segments points at
// the object holding the a/u/r/a_final keys.
type Envelope struct {
	Shape    Shape
	HookType string
	Segments gjson.Result
}

// Result is a reconciled script ready to be stored.
type Result struct {
	HookType string
	Content  models.ScriptContent
}

// Decode classifies a raw JSON answer.
func Decode(raw []byte) (Envelope, error) {
	if !gjson.ValidBytes(raw) {
		return Envelope{}, fmt.Errorf("%w: invalid JSON", ErrUnrecognizedShape)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Envelope{}, fmt.Errorf("%w: answer is not an object", ErrUnrecognizedShape)
	}

	hook := root.Get("hook_type")
	if !hook.Exists() {
		hook = root.Get("gancho_type")
	}
	env := Envelope{HookType: hook.String()}

	if content := root.Get("content"); content.IsObject() {
		env.Shape = Canonical
		env.Segments = content
		return env, nil
	}
	if root.Get(string(models.SegmentOpening)).Exists() {
		env.Shape = Flattened
		env.Segments = root
		return env, nil
	}
	return Envelope{}, ErrUnrecognizedShape
}

// Reconcile converts an envelope into the canonical script. A missing hook
// type gets the default label in both shapes, and flattened answers without
// a closing reuse the opening. The opening must be an object with visual or
// audio text; an empty object or a bare string fails with ErrMissingOpening.
func Reconcile(env Envelope) (Result, error) {
	opening, ok := segment(env.Segments, models.SegmentOpening)
	if !ok {
		return Result{}, ErrMissingOpening
	}

	res := Result{HookType: env.HookType}
	res.Content.A = opening
	res.Content.U, _ = segment(env.Segments, models.SegmentUniverse)
	res.Content.R, _ = segment(env.Segments, models.SegmentRetention)
	closing, hasClosing := segment(env.Segments, models.SegmentAction)
	res.Content.AFinal = closing

	switch env.Shape {
	case Flattened:
		if !hasClosing {
			res.Content.AFinal = opening
		}
	case Canonical:
	default:
		return Result{}, ErrUnrecognizedShape
	}
	if res.HookType == "" {
		res.HookType = DefaultHookType
	}
	return res, nil
}

// Script decodes and reconciles a raw answer in one step.
func Script(raw []byte) (Result, error) {
	env, err := Decode(raw)
	if err != nil {
		return Result{}, err
	}
	return Reconcile(env)
}

// Segment decodes a remix answer. The segment is expected at the top level,
// but answers that wrap it under its own key are accepted.
func Segment(raw []byte, key models.SegmentKey) (models.Segment, error) {
	if !gjson.ValidBytes(raw) {
		return models.Segment{}, fmt.Errorf("%w: invalid JSON", ErrUnrecognizedShape)
	}
	root := gjson.ParseBytes(raw)
	if seg, ok := segmentFields(root); ok {
		return seg, nil
	}
	if seg, ok := segment(root, key); ok {
		return seg, nil
	}
	return models.Segment{}, ErrMissingSegment
}

func segment(obj gjson.Result, key models.SegmentKey) (models.Segment, bool) {
	v := obj.Get(string(key))
	if !v.IsObject() {
		return models.Segment{}, false
	}
	return segmentFields(v)
}

func segmentFields(v gjson.Result) (models.Segment, bool) {
	visual, audio := v.Get("visual"), v.Get("audio")
	if !visual.Exists() && !audio.Exists() {
		return models.Segment{}, false
	}
	return models.Segment{Visual: visual.String(), Audio: audio.String()}, true
}
