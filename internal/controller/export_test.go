package controller

// Test-only aliases so the external controller_test package (needed to
// import internal/route without an import cycle) can reach internals.
type EditorResponse = editorResponse

var StatusForError = statusForError
