package catalog

// SpecCatalog defines the interface for catalog operations. Consumers should
// depend on this interface rather than the concrete *DB type to facilitate
// testing with mocks.
type SpecCatalog interface {
	UpsertSpec(row SpecRow, searchText string) error
	DeleteSpec(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListSpecs() ([]SpecRow, error)
	ResolvePath(specID string) (string, error)
	Search(query string, limit int) ([]SearchResult, error)
	RecordView(specID string) error
	SetLastStep(specID string, step int) error
	GetProgress(specID string) (Progress, error)
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	Close() error
}

// Verify *DB satisfies SpecCatalog at compile time.
var _ SpecCatalog = (*DB)(nil)
