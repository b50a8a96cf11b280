package ramdisk

import "log/slog"

// WalkOption configures a Walker.
type WalkOption func(*Walker)

// WalkWithOrder sets the traversal order. Defaults to DefaultOrder.
func WalkWithOrder(o Order) WalkOption {
	return func(w *Walker) {
		w.order = o
	}
}

// WalkWithExcludeSuffix sets the file name suffix that is never embedded.
// Defaults to DefaultExcludeSuffix.
func WalkWithExcludeSuffix(suffix string) WalkOption {
	return func(w *Walker) {
		w.excludeSuffix = suffix
	}
}

// WalkWithSkip sets a predicate over absolute file paths that are never
// embedded, typically the output file when it lives under root.
func WalkWithSkip(skip func(absPath string) bool) WalkOption {
	return func(w *Walker) {
		w.skip = skip
	}
}

// WalkWithLogger sets the diagnostics logger.
func WalkWithLogger(logger *slog.Logger) WalkOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// EmitOption configures an Emitter.
type EmitOption func(*Emitter)

// EmitWithWord sets the directive used for table cells (".word", ".quad").
func EmitWithWord(directive string) EmitOption {
	return func(e *Emitter) {
		e.word = directive
	}
}

// EmitWithEscape sets the string literal policy for paths.
func EmitWithEscape(p EscapePolicy) EmitOption {
	return func(e *Emitter) {
		e.policy = p
	}
}

// EmitWithEntryHook sets a function called after each entry's block is written.
func EmitWithEntryHook(fn func(FileEntry)) EmitOption {
	return func(e *Emitter) {
		e.onEntry = fn
	}
}
