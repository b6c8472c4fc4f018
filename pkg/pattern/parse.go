package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse compiles a pattern spec string as written on the command line:
//
//	<pattern>                  prefix match (default)
//	prefix:<pattern>           prefix match
//	suffix:<pattern>           suffix match
//	contains:<pattern>         match anywhere
//	at:<offset>:<pattern>      match at a fixed byte offset
//
// The pattern part is a base58 literal; it is decoded and validated here,
// before any search starts.
func Parse(spec string) (Pattern, error) {
	switch {
	case strings.HasPrefix(spec, "prefix:"):
		return NewPrefix(strings.TrimPrefix(spec, "prefix:"))
	case strings.HasPrefix(spec, "suffix:"):
		return NewSuffix(strings.TrimPrefix(spec, "suffix:"))
	case strings.HasPrefix(spec, "contains:"):
		return NewContains(strings.TrimPrefix(spec, "contains:"))
	case strings.HasPrefix(spec, "at:"):
		rest := strings.TrimPrefix(spec, "at:")
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 {
			return Pattern{}, fmt.Errorf("pattern %q: at requires at:<offset>:<pattern>", spec)
		}
		offset, err := strconv.Atoi(parts[0])
		if err != nil {
			return Pattern{}, fmt.Errorf("pattern %q: invalid offset %q", spec, parts[0])
		}
		return NewAt(offset, parts[1])
	default:
		return NewPrefix(spec)
	}
}

// ParseTarget compiles a batch argument of the form <spec>[:count], where
// count defaults to 1 and must be positive.
func ParseTarget(arg string) (Pattern, uint64, error) {
	spec, count, err := splitCount(arg)
	if err != nil {
		return Pattern{}, 0, err
	}
	p, err := Parse(spec)
	if err != nil {
		return Pattern{}, 0, err
	}
	return p, count, nil
}

// splitCount strips a trailing :count component. The count is only split
// off when the remainder is still a complete spec, so a pattern that
// happens to end in digits (at:5:3) is not mistaken for a count.
func splitCount(arg string) (string, uint64, error) {
	parts := strings.Split(arg, ":")
	specParts := 1 // bare pattern
	switch parts[0] {
	case "prefix", "suffix", "contains":
		specParts = 2
	case "at":
		specParts = 3
	}

	spec := arg
	count := uint64(1)
	if len(parts) > specParts {
		last := parts[len(parts)-1]
		n, err := strconv.ParseUint(last, 10, 64)
		if err != nil {
			return "", 0, fmt.Errorf("target %q: invalid count %q", arg, last)
		}
		spec = strings.TrimSuffix(arg, ":"+last)
		count = n
	}
	if count == 0 {
		return "", 0, fmt.Errorf("target %q: count must be at least 1", arg)
	}
	return spec, count, nil
}
