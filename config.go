package letterbox

// Config represents the main config
type Config struct {
	DB struct {
		Type string // "sqlite" or "bolt"
		Path string
	}

	HTTP struct {
		Addr string
	}

	Application struct {
		// BaseURL is the public URL confirmation links are built against.
		BaseURL string
	}

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
	}

	Newsletter struct {
		From    string
		Product struct {
			Name string
		}
		HMAC struct {
			Secret string
		}
		Renotify struct {
			// Spec is a cron expression; empty disables re-notification.
			Spec string
		}
	}

	Sentry struct {
		DSN string
	}

	AMQP struct {
		URL string
	}
}
