package certedit

// Layout is a saved editor arrangement, used to render documents without an
// interactive session.
type Layout struct {
	DocumentType DocumentType                 `json:"documentType"`
	FontFamily   string                       `json:"fontFamily,omitempty"`
	FontSize     float64                      `json:"fontSize,omitempty"`
	Background   ImageRef                     `json:"background"`
	Positions    map[FieldKey]Position        `json:"positions,omitempty"`
	Content      map[FieldKey]string          `json:"content,omitempty"`
	Overrides    map[FieldKey]VisualOverrides `json:"overrides,omitempty"`
}

// ApplyLayout copies content, styles and positions onto the editor. Saved
// positions are written as given, clamped to the same range as pointer input.
// Keys the template does not have are ignored.
func (e *Editor) ApplyLayout(l Layout) error {
	if err := e.SetGlobalFont(l.FontFamily, l.FontSize); err != nil {
		return err
	}
	for k, v := range l.Content {
		if err := e.SetContent(k, v); err != nil {
			return err
		}
	}
	for k, o := range l.Overrides {
		if err := e.SetOverrides(k, o); err != nil {
			return err
		}
	}

	if len(l.Positions) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEditorClosed
	}
	// A layout is a finished arrangement, any drag in progress is dropped.
	e.drag.End()

	for _, k := range e.template.Keys() {
		p, ok := l.Positions[k]
		if !ok {
			continue
		}
		if err := e.fields.SetPosition(k, p.Clamp()); err != nil {
			return err
		}
	}

	return nil
}
