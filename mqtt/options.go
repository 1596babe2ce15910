package mqtt

import "time"

// Options configures a Client, grounded on the teacher's functional-options
// pattern in options.go (Options struct + Option func(*Options) + newOptions).
type Options struct {
	ClientID     string
	CleanSession bool
	KeepAlive    time.Duration
}

type Option func(*Options)

func newOptions(opts ...Option) Options {
	options := Options{
		ClientID:     "iotcore-device",
		CleanSession: true,
		KeepAlive:    60 * time.Second,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

// ClientID sets the MQTT client identifier sent in CONNECT.
func ClientID(id string) Option {
	return func(o *Options) { o.ClientID = id }
}

// CleanSession sets the CONNECT clean-session flag.
func CleanSession(clean bool) Option {
	return func(o *Options) { o.CleanSession = clean }
}

// KeepAlive sets the CONNECT keep-alive interval. Note: per §9 Open Question
// 4, this core never sends a keep-alive PINGREQ; the value is only carried
// onto the wire for the broker's benefit.
func KeepAlive(d time.Duration) Option {
	return func(o *Options) { o.KeepAlive = d }
}
