package domain

// CommandResult is the raw outcome of one command execution inside the CLI
// container. It is produced by the exec bridge and consumed only by the
// output parser; callers never see it.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output returns stderr if present, otherwise stdout. Failed commands often
// print their reason to only one of the two streams.
func (r CommandResult) Output() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}
