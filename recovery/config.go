package recovery

import "time"

// Config for the recovery server and client.
type Config struct {
	// Listen is the address the server accepts recovery requests on.
	Listen string `mapstructure:"listen"`

	// Address is the server address the client connects to. When empty and the server runs in
	// the same process, the client uses the address the server is bound to.
	Address string `mapstructure:"address"`

	// Timeout bounds a single request/response exchange on both sides.
	Timeout time.Duration `mapstructure:"timeout"`

	// QueueSize is the number of accepted connections waiting for a handler and the maximum
	// number of requests processed concurrently. Connections above it are closed.
	QueueSize int `mapstructure:"queue-size"`

	// RequestsPerSecond limits how many requests the server starts per second. 0 disables it.
	RequestsPerSecond int `mapstructure:"requests-per-second"`

	// Records seed the store before the server starts.
	Records []Record `mapstructure:"records"`
}

// DefaultConfig for the recovery service. Address is left empty so an in-process consumer
// follows Listen.
func DefaultConfig() Config {
	return Config{
		Listen:    "127.0.0.1:7000",
		Timeout:   5 * time.Second,
		QueueSize: 1000,
		Records:   DemoRecords(),
	}
}
