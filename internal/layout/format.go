package layout

import "strconv"

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatY renders a page coordinate without trailing zeros, e.g. 260 or 260.5.
func FormatY(v float64) string { return formatCoord(v) }
