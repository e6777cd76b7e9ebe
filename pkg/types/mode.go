package types

// ParseMode parses an octal permission string such as "0755" into
// its numeric value.  Strings longer than four digits or containing
// anything other than octal digits fail with ErrModeParse.
func ParseMode(s string) (uint32, error) {
	if len(s) == 0 || len(s) > 4 {
		return 0, &ModeParseError{Input: s}
	}
	var mode uint32
	for _, c := range s {
		if c < '0' || c > '7' {
			return 0, &ModeParseError{Input: s}
		}
		mode = mode<<3 | uint32(c-'0')
	}
	return mode, nil
}
