package engine

import "strconv"

func fmtStr(s *string) string {
	if s == nil {
		return "<none>"
	}
	return strconv.Quote(*s)
}

func fmtInt(i *int) string {
	if i == nil {
		return "<none>"
	}
	return strconv.Itoa(*i)
}
