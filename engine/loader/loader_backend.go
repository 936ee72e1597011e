package loader

// loaderBackend defines the format-specific half of a Loader. Concrete implementations
// (e.g., gltfLoaderBackendImpl) parse and extract; the Loader builds and caches.
type loaderBackend interface {
	// Load imports a document from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *importedDocument: the extracted document
	//   - error: error if the document cannot be read at all
	Load(path string) (*importedDocument, error)

	// LoadBytes imports an in-memory document.
	//
	// Parameters:
	//   - name: the fallback asset name
	//   - data: the document bytes
	//
	// Returns:
	//   - *importedDocument: the extracted document
	//   - error: error if the document cannot be read at all
	LoadBytes(name string, data []byte) (*importedDocument, error)

	// Extensions lists the lower-case file extensions the backend accepts.
	//
	// Returns:
	//   - []string: extensions including the dot
	Extensions() []string
}
