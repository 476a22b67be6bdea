package iostreams

import "fmt"

// PrintSuccess prints a success message to stderr.
func (s *IOStreams) PrintSuccess(format string, args ...any) error {
	_, err := fmt.Fprintln(s.ErrOut, s.ColorScheme().SuccessIconWithColor(fmt.Sprintf(format, args...)))
	return err
}

// PrintWarning prints a warning message to stderr.
func (s *IOStreams) PrintWarning(format string, args ...any) error {
	_, err := fmt.Fprintln(s.ErrOut, s.ColorScheme().WarningIconWithColor(fmt.Sprintf(format, args...)))
	return err
}

// PrintInfo prints an informational message to stderr.
func (s *IOStreams) PrintInfo(format string, args ...any) error {
	_, err := fmt.Fprintln(s.ErrOut, s.ColorScheme().InfoIconWithColor(fmt.Sprintf(format, args...)))
	return err
}

// PrintFailure prints an error message to stderr.
func (s *IOStreams) PrintFailure(format string, args ...any) error {
	_, err := fmt.Fprintln(s.ErrOut, s.ColorScheme().FailureIconWithColor(fmt.Sprintf(format, args...)))
	return err
}

// PrintEmpty prints "No {noun} found." to stderr, followed by hint lines.
func (s *IOStreams) PrintEmpty(noun string, hints ...string) error {
	cs := s.ColorScheme()
	if _, err := fmt.Fprintln(s.ErrOut, cs.Muted(fmt.Sprintf("No %s found.", noun))); err != nil {
		return err
	}
	for _, hint := range hints {
		if _, err := fmt.Fprintln(s.ErrOut, cs.Muted("  "+hint)); err != nil {
			return err
		}
	}
	return nil
}
