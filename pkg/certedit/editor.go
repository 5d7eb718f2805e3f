package certedit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type GlobalStyle struct {
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
}

type EditorOptions struct {
	Blobs  BlobStore
	Logger *zap.SugaredLogger
	Now    func() time.Time
}

// Editor is one open certificate or marksheet editor. It owns its field set and
// the uploaded signature handle, and is safe for concurrent use.
type Editor struct {
	mu sync.Mutex

	template *Template
	subject  string
	fields   *FieldSet
	drag     DragController
	global   GlobalStyle

	blobs     BlobStore
	signature BlobHandle
	closed    bool

	logger *zap.SugaredLogger
}

// Open creates an editor seeded from the template defaults and the record.
func Open(t *Template, r Record, opts EditorOptions) *Editor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	seed := DeriveSeed(r).WithDate(opts.Now())

	return &Editor{
		template: t,
		subject:  seed.Name,
		fields:   NewFieldSet(t, seed.Content(t)),
		global:   GlobalStyle{FontFamily: t.FontFamily, FontSize: t.FontSize},
		blobs:    opts.Blobs,
		logger:   opts.Logger,
	}
}

func (e *Editor) Template() *Template {
	return e.template
}

func (e *Editor) DocumentType() DocumentType {
	return e.template.Type
}

func (e *Editor) Subject() string {
	return e.subject
}

func (e *Editor) MoveMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag.MoveMode()
}

func (e *Editor) SetMoveMode(on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	e.drag.SetMoveMode(on)
	return nil
}

// Dragging returns the field being dragged, if any.
func (e *Editor) Dragging() (FieldKey, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag.Active()
}

// HandlePointer feeds one pointer or touch event through the drag controller.
func (e *Editor) HandlePointer(ev PointerEvent) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false, ErrEditorClosed
	}

	changed, err := e.drag.Handle(ev, e.fields)
	var ufe *UnknownFieldError
	if errors.As(err, &ufe) {
		ufe.DocumentType = e.template.Type
	}
	return changed, err
}

func (e *Editor) SetGlobalFont(family string, size float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	if family != "" {
		e.global.FontFamily = family
	}
	if size > 0 {
		e.global.FontSize = size
	}
	return nil
}

func (e *Editor) Global() GlobalStyle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.global
}

// SetContent replaces a field's text. Unknown keys are ignored.
func (e *Editor) SetContent(key FieldKey, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	e.fields.SetContent(key, value)
	return nil
}

func (e *Editor) SetOverrides(key FieldKey, o VisualOverrides) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	e.fields.SetOverrides(key, o)
	return nil
}

func (e *Editor) ResetPositions() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	e.fields.ResetPositions(e.template.DefaultPositions())
	return nil
}

func (e *Editor) Field(key FieldKey) (Field, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fields.Field(key)
}

func (e *Editor) Fields() []Field {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fields.Fields()
}

// SetSignatureImage assigns a new signature image. The previous handle is
// released first; assigning the current handle again is a no-op.
func (e *Editor) SetSignatureImage(ctx context.Context, h BlobHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	if h == e.signature {
		return nil
	}
	e.releaseSignature(ctx)
	e.signature = h
	e.fields.setImage(FieldSignature, h)
	return nil
}

// ClearSignatureImage releases the signature image and falls back to text.
func (e *Editor) ClearSignatureImage(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	e.releaseSignature(ctx)
	return nil
}

func (e *Editor) releaseSignature(ctx context.Context) {
	if e.signature == "" {
		return
	}
	if e.blobs != nil {
		if err := e.blobs.Revoke(ctx, e.signature); err != nil {
			e.logger.Warnf("Failed to revoke signature image %s: %v", e.signature, err)
		}
	}
	e.signature = ""
	e.fields.setImage(FieldSignature, "")
}

// Close releases the signature handle. Calling it more than once is safe.
func (e *Editor) Close(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.releaseSignature(ctx)
	e.drag.ForceIdle()
	e.closed = true
}

func (e *Editor) suspendMoveMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag.ForceIdle()
}

func (e *Editor) restoreMoveMode(prev bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.drag.Restore(prev)
	}
}

type SnapshotItem struct {
	Key      FieldKey
	Text     string
	Image    ImageRef
	Position Position
	Style    ResolvedStyle
}

// Snapshot is an immutable copy of everything needed to draw the document.
type Snapshot struct {
	DocumentType DocumentType
	Subject      string
	Orientation  Orientation
	Page         Size
	Background   ImageRef
	Items        []SnapshotItem
}

func (e *Editor) Snapshot() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return Snapshot{}, ErrEditorClosed
	}

	fields := e.fields.Fields()
	items := make([]SnapshotItem, 0, len(fields))
	for _, f := range fields {
		item := SnapshotItem{
			Key:      f.Key,
			Text:     f.Text,
			Position: f.Position,
			Style:    Resolve(f, e.global.FontFamily, e.global.FontSize),
		}
		if item.Style.Image {
			item.Image = ImageRef{Origin: OriginBlob, Key: string(f.Image)}
		}
		items = append(items, item)
	}

	return Snapshot{
		DocumentType: e.template.Type,
		Subject:      e.subject,
		Orientation:  e.template.Orientation,
		Page:         e.template.Page,
		Background:   e.template.Background,
		Items:        items,
	}, nil
}

type FieldState struct {
	Key      FieldKey      `json:"key"`
	Text     string        `json:"text"`
	HasImage bool          `json:"hasImage"`
	Position Position      `json:"position"`
	Style    ResolvedStyle `json:"style"`
}

type State struct {
	DocumentType DocumentType `json:"documentType"`
	Subject      string       `json:"subject"`
	MoveMode     bool         `json:"moveMode"`
	Dragging     FieldKey     `json:"dragging,omitempty"`
	Global       GlobalStyle  `json:"global"`
	Fields       []FieldState `json:"fields"`
}

// State is the JSON view of the editor returned to clients.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	fields := e.fields.Fields()
	out := make([]FieldState, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldState{
			Key:      f.Key,
			Text:     f.Text,
			HasImage: f.HasImage(),
			Position: f.Position,
			Style:    Resolve(f, e.global.FontFamily, e.global.FontSize),
		})
	}

	dragging, _ := e.drag.Active()
	return State{
		DocumentType: e.template.Type,
		Subject:      e.subject,
		MoveMode:     e.drag.MoveMode(),
		Dragging:     dragging,
		Global:       e.global,
		Fields:       out,
	}
}
