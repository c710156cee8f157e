package logging

import "time"

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Domain field helpers for the study pipeline
func Component(name string) Field {
	return String("component", name)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Snapshot(id string) Field {
	return String("snapshot_id", id)
}

func ElementID(id string) Field {
	return String("element_id", id)
}

func Outcome(kind string) Field {
	return String("outcome", kind)
}

func LoadingPct(pct float64) Field {
	return Float64("max_loading_pct", pct)
}

func Violations(n int) Field {
	return Int("violations", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
