package cli

// NormalizeArgs rewrites the historical "-a4" spelling, which pflag would
// read as the shorthands 'a' and '4', into --resize-a4.
func NormalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		if arg == "--" {
			copy(out[i:], args[i:])
			break
		}
		if arg == "-a4" {
			arg = "--resize-a4"
		}
		out[i] = arg
	}
	return out
}
