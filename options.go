package reddit

// Option configures how a model object is constructed.
type Option func(*objectArgs)

type objectArgs struct {
	id       *string
	threadID *string
	updateID *string
	data     map[string]any
	thread   *LiveThread
}

// WithID constructs an object lazily from its identifier.
func WithID(id string) Option {
	return func(a *objectArgs) { a.id = &id }
}

// WithData constructs an object from a pre-fetched field mapping. A nil map counts as absent.
func WithData(data map[string]any) Option {
	return func(a *objectArgs) { a.data = data }
}

// WithThreadID names the thread owning a LiveUpdate.
func WithThreadID(id string) Option {
	return func(a *objectArgs) { a.threadID = &id }
}

// WithUpdateID names a LiveUpdate within its thread.
func WithUpdateID(id string) Option {
	return func(a *objectArgs) { a.updateID = &id }
}

// WithThread binds a LiveUpdate to an existing thread object.
func WithThread(t *LiveThread) Option {
	return func(a *objectArgs) { a.thread = t }
}

func collectArgs(opts []Option) objectArgs {
	var a objectArgs
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// dataID returns the string "id" field of a data mapping.
func dataID(data map[string]any) (string, error) {
	id, ok := toString(data["id"])
	if !ok || id == "" {
		return "", newValueError("data", "mapping has no string 'id' field")
	}
	return id, nil
}
