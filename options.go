package busan

// Option configures a Run.
type Option func(*config)

type config struct {
	admit        AdmissionFunc
	panicToError bool
	resultBuffer int
}

func defaultConfig() config {
	return config{
		panicToError: true,
	}
}

// WithAdmission sets the admission predicate consulted before each pending
// input is started. nil is equivalent to admitting everything.
func WithAdmission(fn AdmissionFunc) Option {
	return func(c *config) {
		c.admit = fn
	}
}

// WithPanicToError converts job panics to job errors.
func WithPanicToError(enabled bool) Option {
	return func(c *config) {
		c.panicToError = enabled
	}
}

// WithResultBuffer preallocates capacity for results that completed before
// the consumer pulled them.
func WithResultBuffer(size int) Option {
	if size < 0 {
		panic("busan: result buffer cannot be negative")
	}

	return func(c *config) {
		c.resultBuffer = size
	}
}
