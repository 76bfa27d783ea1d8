package storage

// Container is a resolved handle to a remote container. Handles are only
// built by a Registry and are shared by every operation on the same name.
type Container struct {
	name      string
	access    Access
	confirmed bool
}

// Name returns the container name.
func (c *Container) Name() string { return c.name }

// Access returns the access mode read right after the container was confirmed.
func (c *Container) Access() Access { return c.access }

// Confirmed reports whether the container is known to exist remotely.
func (c *Container) Confirmed() bool { return c.confirmed }

// IsPublic reports whether objects can be read without a signature.
func (c *Container) IsPublic() bool { return c.access == AccessPublicRead }

// Reference identifies an object within a container.
type Reference struct {
	Container string
	Key       string
}

// String returns "container/key".
func (r Reference) String() string { return r.Container + "/" + r.Key }
