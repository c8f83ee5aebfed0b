package flute

// TickTrace is a snapshot of the loop signals of one Tick.
type TickTrace struct {
	Breath     float64 // breath pressure after noise and vibrato
	Reflection float64 // filtered, negated bore output
	JetIn      float64
	JetOut     float64
	Shaped     float64 // jet function output after the [-1, 1] clamp
	Output     float64
}

// Observer receives a trace of every Tick. It runs on the audio path and
// must not block.
type Observer interface {
	ObserveTick(TickTrace)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(TickTrace)

// ObserveTick implements Observer.
func (fn ObserverFunc) ObserveTick(t TickTrace) {
	fn(t)
}
