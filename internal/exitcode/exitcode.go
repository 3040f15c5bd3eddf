package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	ReferenceError  = 3
	AnalysisError   = 4
	RenderError     = 5
)
