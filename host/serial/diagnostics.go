package serial

// DiagnosticSink forwards line-oriented status messages — endstop trips,
// abort reasons — over a Port, the way a firmware target's diagnostic UART
// would. It has no framing of its own: one Notify call is one newline-
// terminated line, mirroring the plain strings core.StepperCore.CheckHitEndstops
// already produces.
type DiagnosticSink struct {
	port Port
}

// NewDiagnosticSink wraps an already-open Port.
func NewDiagnosticSink(port Port) *DiagnosticSink {
	return &DiagnosticSink{port: port}
}

// Notify writes msg to the port followed by a newline, ignoring write
// errors: a diagnostic sink must never block or panic the caller over a
// severed link.
func (d *DiagnosticSink) Notify(msg string) {
	if d.port == nil {
		return
	}
	d.port.Write([]byte(msg + "\n"))
}
