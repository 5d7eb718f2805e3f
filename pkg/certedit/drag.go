package certedit

// DragTarget is what the drag controller mutates. FieldSet implements it.
type DragTarget interface {
	Has(key FieldKey) bool
	SetPosition(key FieldKey, p Position) error
}

// DragController tracks which field, if any, is being repositioned.
// The zero value is Idle with move mode off.
type DragController struct {
	moveMode bool
	dragging bool
	active   FieldKey
}

func (d *DragController) MoveMode() bool {
	return d.moveMode
}

// SetMoveMode toggles layout editing. Turning it off ends any active drag.
func (d *DragController) SetMoveMode(on bool) {
	d.moveMode = on
	if !on {
		d.End()
	}
}

func (d *DragController) Active() (FieldKey, bool) {
	return d.active, d.dragging
}

// Start begins dragging key. It is ignored while move mode is off. A drag on
// another field is ended first so only one field is ever dragging.
func (d *DragController) Start(key FieldKey) bool {
	if !d.moveMode {
		return false
	}
	d.End()
	d.active = key
	d.dragging = true
	return true
}

// End is the single terminal handler for pointer-up, pointer-leave and touch-end.
func (d *DragController) End() (FieldKey, bool) {
	key, was := d.active, d.dragging
	d.active = ""
	d.dragging = false
	return key, was
}

// ForceIdle ends any drag and disables move mode, returning the previous
// move mode so it can be handed back to Restore.
func (d *DragController) ForceIdle() bool {
	prev := d.moveMode
	d.SetMoveMode(false)
	return prev
}

func (d *DragController) Restore(moveMode bool) {
	d.SetMoveMode(moveMode)
}

// Handle applies one pointer or touch event. It reports whether a position
// changed.
func (d *DragController) Handle(e PointerEvent, target DragTarget) (bool, error) {
	switch e.Kind {
	case PointerDown, TouchStart:
		if !d.moveMode {
			return false, nil
		}
		if !target.Has(e.Field) {
			return false, &UnknownFieldError{Key: e.Field}
		}
		d.Start(e.Field)
		return false, nil

	case PointerMove, TouchMove:
		if !d.dragging {
			return false, nil
		}
		p, ok := MapEvent(e)
		if !ok {
			return false, nil
		}
		if err := target.SetPosition(d.active, p); err != nil {
			d.End()
			return false, err
		}
		return true, nil

	case PointerUp, PointerLeave, TouchEnd:
		d.End()
		return false, nil
	}

	return false, nil
}
