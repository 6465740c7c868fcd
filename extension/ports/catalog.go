package ports

// Catalog associates message bundles with freshly built extensions.
type Catalog interface {
	// AddAssociatedBundle loads the bundle associated with object at the given
	// priority. It fails with entities.ErrNoBundle when none exists.
	AddAssociatedBundle(object any, priority int) (bool, error)
}
