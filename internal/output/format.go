// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"gtodo/internal/service"
	"gtodo/internal/view"
)

const (
	// Title is the heading printed above the list.
	Title = "Mis Tareas"

	// Subtitle is printed under the heading.
	Subtitle = "Organiza tu día de manera efectiva"

	// Separator frames the heading and the counters.
	Separator = "------------"

	// EmptyMessage and EmptyHint are shown when there are no tasks.
	EmptyMessage = "No hay tareas todavía"
	EmptyHint    = "¡Agrega tu primera tarea arriba!"

	// LoadingMessage is shown while the list is being fetched.
	LoadingMessage = "Cargando tareas..."

	// AddingMessage is shown while a create is in flight.
	AddingMessage = "Agregando..."
)

const (
	sgrStrike = "\x1b[9m"
	sgrDim    = "\x1b[2m"
	sgrRed    = "\x1b[31m"
	sgrReset  = "\x1b[0m"
)

// Options controls rendering.
type Options struct {
	// Color enables ANSI styling: completed tasks struck through, errors red.
	Color bool
}

// FormatTask formats a task line.
// Format: "{N:>4}  [ ] {TEXT}\n", with [x] for completed tasks.
func FormatTask(w io.Writer, num int, task service.Task, opts Options) {
	text := normalizeText(task.Text)
	box := "[ ]"
	if task.Completed {
		box = "[x]"
		if opts.Color {
			text = sgrStrike + sgrDim + text + sgrReset
		}
	}
	fmt.Fprintf(w, "%4d  %s %s\n", num, box, text)
}

// FormatEditing formats the row that is in edit mode, showing the edit
// buffer instead of the stored text.
func FormatEditing(w io.Writer, num int, editText string) {
	fmt.Fprintf(w, "%4d  [~] %s\n", num, strings.ReplaceAll(editText, "\n", " "))
}

// FormatCounts formats the counters line.
func FormatCounts(w io.Writer, c view.Counts) {
	fmt.Fprintf(w, "Total: %d tareas  Completadas: %d  Pendientes: %d\n", c.Total, c.Completed, c.Pending)
}

// FormatError formats the error banner and its optional hint.
func FormatError(w io.Writer, msg, hint string, opts Options) {
	line := "Error: " + msg
	if opts.Color {
		line = sgrRed + line + sgrReset
	}
	fmt.Fprintln(w, line)
	if hint != "" {
		fmt.Fprintln(w, hint)
	}
}

// FormatHeader formats the title block.
func FormatHeader(w io.Writer) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, Title)
	fmt.Fprintln(w, Subtitle)
	fmt.Fprintln(w, Separator)
}

// FormatList formats the task rows, or the empty message when there are
// none. The row in edit mode shows its edit buffer.
func FormatList(w io.Writer, st view.State, opts Options) {
	if len(st.Tasks) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		fmt.Fprintln(w, EmptyHint)
		return
	}
	for i, task := range st.Tasks {
		if st.Editing(task.ID) {
			FormatEditing(w, i+1, st.EditText)
			continue
		}
		FormatTask(w, i+1, task, opts)
	}
}

// RenderView writes the complete view: header, banner, list and counters.
func RenderView(w io.Writer, st view.State, opts Options) {
	FormatHeader(w)

	switch st.Phase() {
	case view.Loading:
		fmt.Fprintln(w, LoadingMessage)
		return
	case view.Adding:
		fmt.Fprintln(w, AddingMessage)
	}

	if st.Err != "" {
		FormatError(w, st.Err, st.Hint, opts)
	}

	FormatList(w, st, opts)

	if len(st.Tasks) > 0 {
		fmt.Fprintln(w, Separator)
		FormatCounts(w, st.Counts())
	}
}

// normalizeText normalizes a task text for display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}
