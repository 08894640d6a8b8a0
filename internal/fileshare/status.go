package fileshare

// Status is the lifecycle position of a shared file. It only moves forward.
type Status int

const (
	StatusUnknown   Status = 0
	StatusUploaded  Status = 1
	StatusDescribed Status = 2
)

// StatusFromInt converts an untrusted integer into a Status.
// Values outside the known set map to StatusUnknown.
func StatusFromInt(v int64) Status {
	switch s := Status(v); s {
	case StatusUploaded, StatusDescribed:
		return s
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	switch s {
	case StatusUploaded:
		return "uploaded"
	case StatusDescribed:
		return "described"
	default:
		return "unknown"
	}
}

// hasSize reports whether documents at this status carry a file size.
func (s Status) hasSize() bool {
	return s == StatusUploaded || s == StatusDescribed
}
