package ports

// Watcher monitors a root directory for file changes and triggers regeneration.
// The adapter (fsnotify) must filter out excluded names before invoking
// onChange. Only one Watch call should be active at a time.
type Watcher interface {
	// Watch starts monitoring root recursively. onChange is called with
	// the absolute path of each changed file or directory. The callback may be
	// invoked from any goroutine. Returns an error if the directory doesn't
	// exist or permissions are insufficient.
	Watch(root string, onChange func(path string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
