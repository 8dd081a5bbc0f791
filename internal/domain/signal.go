package domain

import (
	"strconv"
	"time"
)

// Signal tells other open views (the admin panel) that some data set changed
// and should be reloaded.
type Signal struct {
	Event string    `json:"event"`
	At    time.Time `json:"at"`
}

const EventSubscribers = "subscribers"

func NewSignal(event string, at time.Time) Signal {
	return Signal{Event: event, At: at}
}

// Marker renders the signal as "<event>_<unix millis>", the value admin views
// historically watched for.
func (s Signal) Marker() string {
	return s.Event + "_" + strconv.FormatInt(s.At.UnixMilli(), 10)
}

// SubmitResult is a POST outcome as a page sees it.
type SubmitResult struct {
	Status  int    `json:"-"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r SubmitResult) OK() bool { return r.Status >= 200 && r.Status < 300 }
