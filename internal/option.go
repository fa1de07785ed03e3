package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	specID string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSpecID selects the diagram to play.
func WithSpecID(id string) Option {
	return func(a *application) {
		a.specID = id
	}
}
